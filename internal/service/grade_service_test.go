package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type mockGradeRepo struct {
	grades  map[string]models.Grade
	details []models.GradeDetail
	created *models.Grade
	updated *models.Grade
}

func gradeKey(studentID, courseID string) string { return studentID + "/" + courseID }

func (m *mockGradeRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Grade, error) {
	if g, ok := m.grades[gradeKey(studentID, courseID)]; ok {
		return &g, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if m.grades == nil {
		m.grades = make(map[string]models.Grade)
	}
	m.grades[gradeKey(grade.StudentID, grade.CourseID)] = *grade
	m.created = grade
	return nil
}

func (m *mockGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	m.grades[gradeKey(grade.StudentID, grade.CourseID)] = *grade
	m.updated = grade
	return nil
}

func (m *mockGradeRepo) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	return m.details, nil
}

func (m *mockGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	return m.details, nil
}

func (m *mockGradeRepo) CountByCourse(ctx context.Context, courseID string) (int, error) {
	return len(m.details), nil
}

type mockGradeCourseRepo struct {
	courses     map[string]models.Course
	saved       []string
	reset       []string
	submitted   []string
	submittedAt time.Time
}

func (m *mockGradeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeCourseRepo) MarkGradesSaved(ctx context.Context, id string) error {
	m.saved = append(m.saved, id)
	return nil
}

func (m *mockGradeCourseRepo) ResetGradesSaved(ctx context.Context, id string) error {
	m.reset = append(m.reset, id)
	return nil
}

func (m *mockGradeCourseRepo) MarkGradesSubmitted(ctx context.Context, id string, at time.Time) error {
	m.submitted = append(m.submitted, id)
	m.submittedAt = at
	return nil
}

type mockSelectionChecker struct {
	enrolled map[string]bool
}

func (m *mockSelectionChecker) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.enrolled[gradeKey(studentID, courseID)], nil
}

type mockAnnouncementWriter struct {
	created []models.Announcement
}

func (m *mockAnnouncementWriter) Create(ctx context.Context, announcement *models.Announcement) error {
	m.created = append(m.created, *announcement)
	return nil
}

func ptr(f float64) *float64 { return &f }

func TestGradeMapping(t *testing.T) {
	tests := []struct {
		score float64
		point float64
		level string
	}{
		{90, 4.0, "A"},
		{100, 4.0, "A"},
		{89.9, 3.0, "B"},
		{80, 3.0, "B"},
		{79.9, 2.0, "C"},
		{70, 2.0, "C"},
		{69.9, 1.0, "D"},
		{60, 1.0, "D"},
		{59.9, 0.0, "F"},
		{0, 0.0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.point, models.GradePoint(tt.score), "point for %.1f", tt.score)
		assert.Equal(t, tt.level, models.GradeLevel(tt.score), "level for %.1f", tt.score)
	}
}

func newGradeService(grades *mockGradeRepo, courses *mockGradeCourseRepo, selections *mockSelectionChecker, announcements *mockAnnouncementWriter) *GradeService {
	return NewGradeService(grades, courses, selections, announcements, nil, zap.NewNop())
}

func TestUpsertGradeComputesPointAndLevel(t *testing.T) {
	grades := &mockGradeRepo{}
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1", Name: "Calculus"},
	}}
	selections := &mockSelectionChecker{enrolled: map[string]bool{"stu-1/course-1": true}}
	svc := newGradeService(grades, courses, selections, &mockAnnouncementWriter{})

	grade, err := svc.Upsert(context.Background(), "teacher-1", "course-1", UpsertGradeRequest{
		StudentID:    "stu-1",
		Score:        ptr(87.5),
		ExamType:     "final",
		AcademicYear: "2025-2026",
		Semester:     "1",
	})
	require.NoError(t, err)
	require.NotNil(t, grade.GradePoint)
	assert.Equal(t, 3.0, *grade.GradePoint)
	assert.Equal(t, "B", *grade.GradeLevel)
	assert.Equal(t, []string{"course-1"}, courses.saved)

	// a second upsert rewrites the same row and recomputes
	grade, err = svc.Upsert(context.Background(), "teacher-1", "course-1", UpsertGradeRequest{
		StudentID:    "stu-1",
		Score:        ptr(92),
		ExamType:     "final",
		AcademicYear: "2025-2026",
		Semester:     "1",
	})
	require.NoError(t, err)
	assert.Equal(t, 4.0, *grade.GradePoint)
	assert.Equal(t, "A", *grade.GradeLevel)
	require.NotNil(t, grades.updated)
}

func TestUpsertGradeNotEnrolled(t *testing.T) {
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1"},
	}}
	svc := newGradeService(&mockGradeRepo{}, courses, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	_, err := svc.Upsert(context.Background(), "teacher-1", "course-1", UpsertGradeRequest{
		StudentID:    "stu-9",
		Score:        ptr(50),
		ExamType:     "final",
		AcademicYear: "2025-2026",
		Semester:     "1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestUpsertGradeForeignCourseForbidden(t *testing.T) {
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-2"},
	}}
	svc := newGradeService(&mockGradeRepo{}, courses, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	_, err := svc.Upsert(context.Background(), "teacher-1", "course-1", UpsertGradeRequest{
		StudentID:    "stu-1",
		Score:        ptr(50),
		ExamType:     "final",
		AcademicYear: "2025-2026",
		Semester:     "1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBatchUpsertCountsSuccessesAndFailures(t *testing.T) {
	grades := &mockGradeRepo{}
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1", Name: "Calculus"},
	}}
	selections := &mockSelectionChecker{enrolled: map[string]bool{
		"stu-1/course-1": true,
		"stu-2/course-1": true,
	}}
	svc := newGradeService(grades, courses, selections, &mockAnnouncementWriter{})

	result, err := svc.BatchUpsert(context.Background(), "teacher-1", "course-1", BatchUpsertRequest{
		Grades: []BatchGradeEntry{
			{StudentID: "stu-1", Score: ptr(88)},
			{StudentID: "stu-2", Score: ptr(54)},
			{StudentID: "", Score: ptr(70)},       // missing student
			{StudentID: "stu-3", Score: nil},      // missing score
			{StudentID: "stu-9", Score: ptr(91)},  // not enrolled
		},
		ExamType:     "final",
		AcademicYear: "2025-2026",
		Semester:     "1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 3, result.FailureCount)
	assert.Len(t, grades.grades, 2)
	assert.Equal(t, []string{"course-1"}, courses.saved)
}

func TestBatchUpsertForeignCourseForbidden(t *testing.T) {
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-2"},
	}}
	svc := newGradeService(&mockGradeRepo{}, courses, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	_, err := svc.BatchUpsert(context.Background(), "teacher-1", "course-1", BatchUpsertRequest{
		Grades:       []BatchGradeEntry{{StudentID: "stu-1", Score: ptr(80)}},
		ExamType:     "final",
		AcademicYear: "2025-2026",
		Semester:     "1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestSaveGradesRequiresExistingRows(t *testing.T) {
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1"},
	}}
	svc := newGradeService(&mockGradeRepo{}, courses, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	err := svc.SaveGrades(context.Background(), "teacher-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoGradesSaved.Code, appErrors.FromError(err).Code)
	assert.Empty(t, courses.saved)
}

func TestSaveAndResetGradesStatus(t *testing.T) {
	grades := &mockGradeRepo{details: []models.GradeDetail{
		{Grade: models.Grade{Score: ptr(80)}},
	}}
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1"},
	}}
	svc := newGradeService(grades, courses, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	require.NoError(t, svc.SaveGrades(context.Background(), "teacher-1", "course-1"))
	assert.Equal(t, []string{"course-1"}, courses.saved)

	require.NoError(t, svc.ResetGradesStatus(context.Background(), "teacher-1", "course-1"))
	assert.Equal(t, []string{"course-1"}, courses.reset)
}

func TestSubmitWithoutGrades(t *testing.T) {
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1", Name: "Calculus"},
	}}
	svc := newGradeService(&mockGradeRepo{}, courses, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	_, err := svc.Submit(context.Background(), "teacher-1", "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoGradesSaved.Code, appErrors.FromError(err).Code)
}

func TestSubmitPublishesAnnouncementWithStatistics(t *testing.T) {
	grades := &mockGradeRepo{details: []models.GradeDetail{
		{Grade: models.Grade{Score: ptr(95)}},
		{Grade: models.Grade{Score: ptr(72)}},
		{Grade: models.Grade{Score: ptr(55)}},
		{Grade: models.Grade{Score: nil}},
	}}
	courses := &mockGradeCourseRepo{courses: map[string]models.Course{
		"course-1": {ID: "course-1", TeacherID: "teacher-1", Name: "Calculus"},
	}}
	announcements := &mockAnnouncementWriter{}
	svc := newGradeService(grades, courses, &mockSelectionChecker{}, announcements)

	stats, err := svc.Submit(context.Background(), "teacher-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalStudents, "rows without a score are skipped")
	assert.Equal(t, 2, stats.PassCount)
	assert.Equal(t, 1, stats.FailCount)
	assert.InDelta(t, 74.0, stats.AverageScore, 0.01)
	assert.InDelta(t, 66.66, stats.PassRate, 0.01)

	require.Len(t, announcements.created, 1)
	assert.Equal(t, models.AnnouncementTypeGrades, announcements.created[0].Type)
	assert.Equal(t, []string{"course-1"}, courses.submitted)

	// re-submission publishes a fresh announcement
	_, err = svc.Submit(context.Background(), "teacher-1", "course-1")
	require.NoError(t, err)
	require.Len(t, announcements.created, 2)
}

func TestStudentSummaryGPA(t *testing.T) {
	grades := &mockGradeRepo{details: []models.GradeDetail{
		{Grade: models.Grade{Score: ptr(95), GradePoint: ptr(4.0)}, Credit: 3},
		{Grade: models.Grade{Score: ptr(65), GradePoint: ptr(1.0)}, Credit: 2},
		{Grade: models.Grade{Score: nil}, Credit: 4},
	}}
	svc := newGradeService(grades, &mockGradeCourseRepo{}, &mockSelectionChecker{}, &mockAnnouncementWriter{})

	summary, err := svc.StudentSummary(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.CourseCount)
	assert.Equal(t, 5, summary.TotalCredits)
	assert.InDelta(t, 2.8, summary.AverageGPA, 0.001)
}
