package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type alertRepository interface {
	FindByID(ctx context.Context, id string) (*models.AcademicAlert, error)
	ExistsActiveForTerm(ctx context.Context, studentID, academicYear, semester string) (bool, error)
	Create(ctx context.Context, alert *models.AcademicAlert) error
	List(ctx context.Context, filter repository.AlertFilter) ([]models.AlertDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.AlertStatus, resolvedBy *string, resolvedAt *time.Time) error
	CreateCounselingRecord(ctx context.Context, record *models.CounselingRecord) error
	ListCounselingRecords(ctx context.Context, alertID string) ([]models.CounselingRecordDetail, error)
}

type failingGradeReader interface {
	ListFailingByStudent(ctx context.Context, studentID, academicYear, semester string) ([]models.GradeDetail, error)
}

// AlertThresholds configures how many failed courses trigger each level.
type AlertThresholds struct {
	FirstLevelMin  int
	SecondLevelMin int
}

// CreateAlertRequest flags a student for a term.
type CreateAlertRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// CounselingRecordRequest appends a follow-up to an alert.
type CounselingRecordRequest struct {
	Content        string     `json:"content" validate:"required"`
	Plan           string     `json:"plan"`
	CounselingTime *time.Time `json:"counseling_time"`
}

// UpdateAlertStatusRequest transitions an alert's status.
type UpdateAlertStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AlertService derives academic-risk alerts from failing grades and tracks
// counselor follow-up.
type AlertService struct {
	alerts     alertRepository
	grades     failingGradeReader
	thresholds AlertThresholds
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAlertService constructs AlertService.
func NewAlertService(alerts alertRepository, grades failingGradeReader, thresholds AlertThresholds, validate *validator.Validate, logger *zap.Logger) *AlertService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if thresholds.FirstLevelMin <= 0 {
		thresholds.FirstLevelMin = 3
	}
	if thresholds.SecondLevelMin <= 0 {
		thresholds.SecondLevelMin = 2
	}
	return &AlertService{
		alerts:     alerts,
		grades:     grades,
		thresholds: thresholds,
		validator:  validate,
		logger:     logger,
	}
}

// Create derives an alert from the student's failing grades for the term.
// The level comes from the configured thresholds; a student below the
// second-level minimum does not warrant an alert, and a student with an
// active alert for the same term is skipped.
func (s *AlertService) Create(ctx context.Context, counselorID string, req CreateAlertRequest) (*models.AcademicAlert, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid alert payload")
	}

	alerted, err := s.alerts.ExistsActiveForTerm(ctx, req.StudentID, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing alerts")
	}
	if alerted {
		return nil, appErrors.Clone(appErrors.ErrAlertExists, "student already alerted for this term")
	}

	failing, err := s.grades.ListFailingByStudent(ctx, req.StudentID, req.AcademicYear, req.Semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list failing grades")
	}
	if len(failing) < s.thresholds.SecondLevelMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "failed-course count below alert threshold")
	}

	level := models.AlertLevelSecond
	if len(failing) >= s.thresholds.FirstLevelMin {
		level = models.AlertLevelFirst
	}
	courses := make(models.FailedCourses, 0, len(failing))
	for _, g := range failing {
		courses = append(courses, g.CourseName)
	}

	alert := &models.AcademicAlert{
		StudentID:     req.StudentID,
		CounselorID:   counselorID,
		AcademicYear:  req.AcademicYear,
		Semester:      req.Semester,
		Level:         level,
		FailedCount:   len(failing),
		FailedCourses: courses,
		Status:        models.AlertStatusActive,
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create alert")
	}
	s.logger.Info("academic alert created",
		zap.String("student_id", req.StudentID),
		zap.String("level", string(alert.Level)),
		zap.Int("failed_count", alert.FailedCount))
	return alert, nil
}

// List returns alert details ordered by severity then creation time.
func (s *AlertService) List(ctx context.Context, filter repository.AlertFilter) ([]models.AlertDetail, error) {
	alerts, err := s.alerts.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}
	return alerts, nil
}

// UpdateStatus transitions an alert between active and resolved. Any other
// status value is rejected.
func (s *AlertService) UpdateStatus(ctx context.Context, id, counselorID string, req UpdateAlertStatusRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.AlertStatus(req.Status)
	if status != models.AlertStatusActive && status != models.AlertStatusResolved {
		return appErrors.Clone(appErrors.ErrInvalidStatus, "status must be ACTIVE or RESOLVED")
	}

	if _, err := s.alerts.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}

	var resolvedBy *string
	var resolvedAt *time.Time
	if status == models.AlertStatusResolved {
		now := time.Now().UTC()
		resolvedBy = &counselorID
		resolvedAt = &now
	}
	if err := s.alerts.UpdateStatus(ctx, id, status, resolvedBy, resolvedAt); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update alert status")
	}
	return nil
}

// AddCounselingRecord appends a follow-up record to an alert.
func (s *AlertService) AddCounselingRecord(ctx context.Context, alertID, counselorID string, req CounselingRecordRequest) (*models.CounselingRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid counseling payload")
	}
	if _, err := s.alerts.FindByID(ctx, alertID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "alert not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load alert")
	}

	record := &models.CounselingRecord{
		AlertID:     alertID,
		CounselorID: counselorID,
		Content:     req.Content,
		Plan:        req.Plan,
	}
	if req.CounselingTime != nil {
		record.CounselingTime = *req.CounselingTime
	}
	if err := s.alerts.CreateCounselingRecord(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create counseling record")
	}
	return record, nil
}

// CounselingRecords returns an alert's follow-up records, oldest first.
func (s *AlertService) CounselingRecords(ctx context.Context, alertID string) ([]models.CounselingRecordDetail, error) {
	records, err := s.alerts.ListCounselingRecords(ctx, alertID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list counseling records")
	}
	return records, nil
}
