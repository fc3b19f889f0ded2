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
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type mockAlertRepo struct {
	alerts     map[string]models.AcademicAlert
	created    *models.AcademicAlert
	createdAll []models.AcademicAlert
	status     map[string]models.AlertStatus
	records    []models.CounselingRecord
}

func (m *mockAlertRepo) FindByID(ctx context.Context, id string) (*models.AcademicAlert, error) {
	if a, ok := m.alerts[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAlertRepo) Create(ctx context.Context, alert *models.AcademicAlert) error {
	m.created = alert
	m.createdAll = append(m.createdAll, *alert)
	return nil
}

func (m *mockAlertRepo) ExistsActiveForTerm(ctx context.Context, studentID, academicYear, semester string) (bool, error) {
	for _, a := range m.createdAll {
		if a.StudentID == studentID && a.AcademicYear == academicYear && a.Semester == semester && a.Status == models.AlertStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAlertRepo) List(ctx context.Context, filter repository.AlertFilter) ([]models.AlertDetail, error) {
	return nil, nil
}

func (m *mockAlertRepo) UpdateStatus(ctx context.Context, id string, status models.AlertStatus, resolvedBy *string, resolvedAt *time.Time) error {
	if m.status == nil {
		m.status = make(map[string]models.AlertStatus)
	}
	m.status[id] = status
	return nil
}

func (m *mockAlertRepo) CreateCounselingRecord(ctx context.Context, record *models.CounselingRecord) error {
	m.records = append(m.records, *record)
	return nil
}

func (m *mockAlertRepo) ListCounselingRecords(ctx context.Context, alertID string) ([]models.CounselingRecordDetail, error) {
	return nil, nil
}

type mockFailingGradeReader struct {
	failing map[string][]models.GradeDetail
}

func (m *mockFailingGradeReader) ListFailingByStudent(ctx context.Context, studentID, academicYear, semester string) ([]models.GradeDetail, error) {
	return m.failing[studentID], nil
}

func failingGrades(courses ...string) []models.GradeDetail {
	out := make([]models.GradeDetail, 0, len(courses))
	for _, c := range courses {
		out = append(out, models.GradeDetail{CourseName: c})
	}
	return out
}

func newAlertService(alerts *mockAlertRepo, grades *mockFailingGradeReader) *AlertService {
	return NewAlertService(alerts, grades, AlertThresholds{FirstLevelMin: 3, SecondLevelMin: 2}, nil, zap.NewNop())
}

func TestCreateAlertFirstLevel(t *testing.T) {
	alerts := &mockAlertRepo{}
	grades := &mockFailingGradeReader{failing: map[string][]models.GradeDetail{
		"stu-1": failingGrades("Calculus", "Physics", "Chemistry"),
	}}
	svc := newAlertService(alerts, grades)

	alert, err := svc.Create(context.Background(), "coun-1", CreateAlertRequest{
		StudentID: "stu-1", AcademicYear: "2025-2026", Semester: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlertLevelFirst, alert.Level)
	assert.Equal(t, 3, alert.FailedCount)
	assert.Equal(t, models.FailedCourses{"Calculus", "Physics", "Chemistry"}, alert.FailedCourses)
	assert.Equal(t, models.AlertStatusActive, alert.Status)
}

func TestCreateAlertSecondLevel(t *testing.T) {
	alerts := &mockAlertRepo{}
	grades := &mockFailingGradeReader{failing: map[string][]models.GradeDetail{
		"stu-2": failingGrades("Calculus", "Physics"),
	}}
	svc := newAlertService(alerts, grades)

	alert, err := svc.Create(context.Background(), "coun-1", CreateAlertRequest{
		StudentID: "stu-2", AcademicYear: "2025-2026", Semester: "1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AlertLevelSecond, alert.Level)
}

func TestCreateAlertSkipsAlreadyAlertedStudent(t *testing.T) {
	alerts := &mockAlertRepo{}
	grades := &mockFailingGradeReader{failing: map[string][]models.GradeDetail{
		"stu-1": failingGrades("Calculus", "Physics", "Chemistry"),
	}}
	svc := newAlertService(alerts, grades)

	req := CreateAlertRequest{StudentID: "stu-1", AcademicYear: "2025-2026", Semester: "1"}
	_, err := svc.Create(context.Background(), "coun-1", req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "coun-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlertExists.Code, appErrors.FromError(err).Code)
	assert.Len(t, alerts.createdAll, 1)
}

func TestCreateAlertBelowThreshold(t *testing.T) {
	alerts := &mockAlertRepo{}
	grades := &mockFailingGradeReader{failing: map[string][]models.GradeDetail{
		"stu-3": failingGrades("Calculus"),
	}}
	svc := newAlertService(alerts, grades)

	_, err := svc.Create(context.Background(), "coun-1", CreateAlertRequest{
		StudentID: "stu-3", AcademicYear: "2025-2026", Semester: "1",
	})
	require.Error(t, err)
	assert.Nil(t, alerts.created)
}

func TestUpdateAlertStatusValidation(t *testing.T) {
	alerts := &mockAlertRepo{alerts: map[string]models.AcademicAlert{
		"al-1": {ID: "al-1", Status: models.AlertStatusActive},
	}}
	svc := newAlertService(alerts, &mockFailingGradeReader{})

	err := svc.UpdateStatus(context.Background(), "al-1", "coun-1", UpdateAlertStatusRequest{Status: "ESCALATED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)

	err = svc.UpdateStatus(context.Background(), "al-1", "coun-1", UpdateAlertStatusRequest{Status: "RESOLVED"})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, alerts.status["al-1"])
}

func TestUpdateAlertStatusNotFound(t *testing.T) {
	svc := newAlertService(&mockAlertRepo{}, &mockFailingGradeReader{})

	err := svc.UpdateStatus(context.Background(), "missing", "coun-1", UpdateAlertStatusRequest{Status: "RESOLVED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAddCounselingRecord(t *testing.T) {
	alerts := &mockAlertRepo{alerts: map[string]models.AcademicAlert{
		"al-1": {ID: "al-1", Status: models.AlertStatusActive},
	}}
	svc := newAlertService(alerts, &mockFailingGradeReader{})

	record, err := svc.AddCounselingRecord(context.Background(), "al-1", "coun-1", CounselingRecordRequest{
		Content: "met with student",
		Plan:    "weekly tutoring",
	})
	require.NoError(t, err)
	assert.Equal(t, "al-1", record.AlertID)
	require.Len(t, alerts.records, 1)
	assert.Equal(t, "weekly tutoring", alerts.records[0].Plan)
}

func TestFailedCoursesLegacyDecode(t *testing.T) {
	var courses models.FailedCourses
	require.NoError(t, courses.Scan("Calculus"))
	assert.Equal(t, models.FailedCourses{"Calculus"}, courses)

	require.NoError(t, courses.Scan(`["Calculus","Physics"]`))
	assert.Equal(t, models.FailedCourses{"Calculus", "Physics"}, courses)

	require.NoError(t, courses.Scan(nil))
	assert.Nil(t, courses)
}
