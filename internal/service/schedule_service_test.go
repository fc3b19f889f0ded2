package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type mockScheduleRepo struct {
	byTeacher map[string][]models.Schedule
	created   *models.Schedule
}

func (m *mockScheduleRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error) {
	return m.byTeacher[teacherID], nil
}

func (m *mockScheduleRepo) ListDetailsByStudent(ctx context.Context, studentID string) ([]models.ScheduleDetail, error) {
	return nil, nil
}

func (m *mockScheduleRepo) ListDetailsByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleDetail, error) {
	return nil, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	m.created = schedule
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) (int64, error) {
	return 1, nil
}

func newScheduleService(schedules *mockScheduleRepo, courses *mockCourseReader) *ScheduleService {
	return NewScheduleService(schedules, nil, courses, nil, zap.NewNop())
}

func TestCreateSlotChecksTeacherTimetableAcrossCourses(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-2": {ID: "course-2", TeacherID: "teacher-1", ClassID: "class-1"},
	}}
	schedules := &mockScheduleRepo{byTeacher: map[string][]models.Schedule{
		"teacher-1": {
			{ID: "s1", CourseID: "course-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:40"},
		},
	}}
	svc := newScheduleService(schedules, courses)

	_, err := svc.CreateSlot(context.Background(), "teacher-1", CreateScheduleRequest{
		CourseID:  "course-2",
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "10:40",
	})
	require.Error(t, err, "slot of a different course still blocks the same teacher")
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, schedules.created)
}

func TestCreateSlotBackToBackAllowed(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-2": {ID: "course-2", TeacherID: "teacher-1", ClassID: "class-1"},
	}}
	schedules := &mockScheduleRepo{byTeacher: map[string][]models.Schedule{
		"teacher-1": {
			{ID: "s1", CourseID: "course-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:40"},
		},
	}}
	svc := newScheduleService(schedules, courses)

	slot, err := svc.CreateSlot(context.Background(), "teacher-1", CreateScheduleRequest{
		CourseID:  "course-2",
		DayOfWeek: 1,
		StartTime: "09:40",
		EndTime:   "11:20",
	})
	require.NoError(t, err)
	assert.Equal(t, "course-2", slot.CourseID)
	require.NotNil(t, schedules.created)
}

func TestCreateSlotForeignCourseForbidden(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-2": {ID: "course-2", TeacherID: "teacher-2"},
	}}
	svc := newScheduleService(&mockScheduleRepo{}, courses)

	_, err := svc.CreateSlot(context.Background(), "teacher-1", CreateScheduleRequest{
		CourseID:  "course-2",
		DayOfWeek: 2,
		StartTime: "08:00",
		EndTime:   "09:40",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCreateSlotInvalidInterval(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1"},
	}}
	svc := newScheduleService(&mockScheduleRepo{}, courses)

	_, err := svc.CreateSlot(context.Background(), "teacher-1", CreateScheduleRequest{
		CourseID:  "course-1",
		DayOfWeek: 1,
		StartTime: "10:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}
