package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type mockSelectionRepo struct {
	existing    map[string]bool
	credits     map[string]int
	created     *models.CourseSelection
	createErr   error
	deletedRows int64
	selections  []models.CourseSelectionDetail
}

func selectionKey(studentID, courseID string) string { return studentID + "/" + courseID }

func (m *mockSelectionRepo) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.existing[selectionKey(studentID, courseID)], nil
}

func (m *mockSelectionRepo) Create(ctx context.Context, selection *models.CourseSelection) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.existing == nil {
		m.existing = make(map[string]bool)
	}
	key := selectionKey(selection.StudentID, selection.CourseID)
	if m.existing[key] {
		return repository.ErrDuplicateSelection
	}
	m.existing[key] = true
	m.created = selection
	return nil
}

func (m *mockSelectionRepo) Delete(ctx context.Context, studentID, courseID string) (int64, error) {
	return m.deletedRows, nil
}

func (m *mockSelectionRepo) ListByStudent(ctx context.Context, studentID string) ([]models.CourseSelectionDetail, error) {
	return m.selections, nil
}

func (m *mockSelectionRepo) SumCredits(ctx context.Context, studentID string) (int, error) {
	return m.credits[studentID], nil
}

func (m *mockSelectionRepo) CountByCourse(ctx context.Context, courseID string) (int, error) {
	return 0, nil
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type mockScheduleReader struct {
	byCourse  map[string][]models.Schedule
	byStudent map[string][]models.Schedule
}

func (m *mockScheduleReader) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	return m.byCourse[courseID], nil
}

func (m *mockScheduleReader) ListByStudent(ctx context.Context, studentID string) ([]models.Schedule, error) {
	return m.byStudent[studentID], nil
}

func newEnrollmentService(selections *mockSelectionRepo, courses *mockCourseReader, schedules *mockScheduleReader) *EnrollmentService {
	return NewEnrollmentService(selections, courses, schedules, 30, nil, zap.NewNop())
}

func TestSelectCourseSuccessThenAlreadyEnrolled(t *testing.T) {
	selections := &mockSelectionRepo{existing: map[string]bool{}, credits: map[string]int{}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Credit: 2},
	}}
	schedules := &mockScheduleReader{}
	svc := newEnrollmentService(selections, courses, schedules)

	req := SelectCourseRequest{CourseID: "course-1", AcademicYear: "2025-2026", Semester: "1"}

	selection, err := svc.SelectCourse(context.Background(), "stu-1", req)
	require.NoError(t, err)
	require.NotNil(t, selection)
	assert.Equal(t, "stu-1", selection.StudentID)

	_, err = svc.SelectCourse(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestSelectCourseScheduleConflict(t *testing.T) {
	selections := &mockSelectionRepo{existing: map[string]bool{}, credits: map[string]int{}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-2": {ID: "course-2", Credit: 2},
	}}
	schedules := &mockScheduleReader{
		byCourse: map[string][]models.Schedule{
			"course-2": {{CourseID: "course-2", DayOfWeek: 1, StartTime: "09:00", EndTime: "10:40"}},
		},
		byStudent: map[string][]models.Schedule{
			"stu-1": {{CourseID: "course-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:40"}},
		},
	}
	svc := newEnrollmentService(selections, courses, schedules)

	_, err := svc.SelectCourse(context.Background(), "stu-1", SelectCourseRequest{
		CourseID: "course-2", AcademicYear: "2025-2026", Semester: "1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
}

func TestSelectCourseBackToBackSlotsAllowed(t *testing.T) {
	selections := &mockSelectionRepo{existing: map[string]bool{}, credits: map[string]int{}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-2": {ID: "course-2", Credit: 2},
	}}
	schedules := &mockScheduleReader{
		byCourse: map[string][]models.Schedule{
			"course-2": {{CourseID: "course-2", DayOfWeek: 1, StartTime: "09:40", EndTime: "11:20"}},
		},
		byStudent: map[string][]models.Schedule{
			"stu-1": {{CourseID: "course-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:40"}},
		},
	}
	svc := newEnrollmentService(selections, courses, schedules)

	_, err := svc.SelectCourse(context.Background(), "stu-1", SelectCourseRequest{
		CourseID: "course-2", AcademicYear: "2025-2026", Semester: "1",
	})
	require.NoError(t, err)
}

func TestSelectCourseCreditLimit(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]models.Course{
		"heavy": {ID: "heavy", Credit: 3},
		"light": {ID: "light", Credit: 2},
	}}
	schedules := &mockScheduleReader{}

	t.Run("28 plus 3 exceeds the limit", func(t *testing.T) {
		selections := &mockSelectionRepo{existing: map[string]bool{}, credits: map[string]int{"stu-1": 28}}
		svc := newEnrollmentService(selections, courses, schedules)
		_, err := svc.SelectCourse(context.Background(), "stu-1", SelectCourseRequest{
			CourseID: "heavy", AcademicYear: "2025-2026", Semester: "1",
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrCreditLimitExceeded.Code, appErrors.FromError(err).Code)
	})

	t.Run("28 plus 2 lands exactly on the limit", func(t *testing.T) {
		selections := &mockSelectionRepo{existing: map[string]bool{}, credits: map[string]int{"stu-1": 28}}
		svc := newEnrollmentService(selections, courses, schedules)
		_, err := svc.SelectCourse(context.Background(), "stu-1", SelectCourseRequest{
			CourseID: "light", AcademicYear: "2025-2026", Semester: "1",
		})
		require.NoError(t, err)
	})
}

func TestSelectCourseConcurrentDuplicateMapsToAlreadyEnrolled(t *testing.T) {
	selections := &mockSelectionRepo{
		existing:  map[string]bool{},
		credits:   map[string]int{},
		createErr: repository.ErrDuplicateSelection,
	}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Credit: 2},
	}}
	svc := newEnrollmentService(selections, courses, &mockScheduleReader{})

	_, err := svc.SelectCourse(context.Background(), "stu-1", SelectCourseRequest{
		CourseID: "course-1", AcademicYear: "2025-2026", Semester: "1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestDropCourseNotEnrolled(t *testing.T) {
	selections := &mockSelectionRepo{deletedRows: 0}
	svc := newEnrollmentService(selections, &mockCourseReader{}, &mockScheduleReader{})

	err := svc.DropCourse(context.Background(), "stu-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestDropCourseDeletesOnce(t *testing.T) {
	selections := &mockSelectionRepo{deletedRows: 1}
	svc := newEnrollmentService(selections, &mockCourseReader{}, &mockScheduleReader{})

	require.NoError(t, svc.DropCourse(context.Background(), "stu-1", "course-1"))
}
