package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/conflict"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type selectionRepository interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, selection *models.CourseSelection) error
	Delete(ctx context.Context, studentID, courseID string) (int64, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CourseSelectionDetail, error)
	SumCredits(ctx context.Context, studentID string) (int, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type scheduleReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Schedule, error)
}

// SelectCourseRequest describes a course selection request.
type SelectCourseRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// EnrollmentService orchestrates course selection and drop.
type EnrollmentService struct {
	selections  selectionRepository
	courses     courseReader
	schedules   scheduleReader
	creditLimit int
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(selections selectionRepository, courses courseReader, schedules scheduleReader, creditLimit int, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		selections:  selections,
		courses:     courses,
		schedules:   schedules,
		creditLimit: creditLimit,
		validator:   validate,
		logger:      logger,
	}
}

// SelectCourse enrolls a student in a course after checking duplication,
// schedule conflicts and the credit limit. The unique constraint on
// (student_id, course_id) is the authoritative guard against two
// concurrent requests passing the existence check together.
func (s *EnrollmentService) SelectCourse(ctx context.Context, studentID string, req SelectCourseRequest) (*models.CourseSelection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exists, err := s.selections.Exists(ctx, studentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate selection")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "course already selected")
	}

	candidateSlots, err := s.schedules.ListByCourse(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course schedule")
	}
	existingSlots, err := s.schedules.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student schedule")
	}
	for _, slot := range candidateSlots {
		if hit, clash := conflict.HasScheduleConflict(slot, existingSlots); clash {
			s.logger.Info("course selection rejected by schedule conflict",
				zap.String("student_id", studentID),
				zap.String("course_id", req.CourseID),
				zap.String("conflicting_course_id", hit.CourseID))
			return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "course schedule conflicts with an existing selection")
		}
	}

	current, err := s.selections.SumCredits(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum selected credits")
	}
	if !conflict.WithinCreditLimit(current, course.Credit, s.creditLimit) {
		return nil, appErrors.Clone(appErrors.ErrCreditLimitExceeded, "credit limit exceeded")
	}

	selection := &models.CourseSelection{
		StudentID:    studentID,
		CourseID:     req.CourseID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}
	if err := s.selections.Create(ctx, selection); err != nil {
		if errors.Is(err, repository.ErrDuplicateSelection) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "course already selected")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create selection")
	}
	return selection, nil
}

// DropCourse removes a student's selection. Dropping a course that was
// never selected fails; a second drop of the same course fails the same way.
func (s *EnrollmentService) DropCourse(ctx context.Context, studentID, courseID string) error {
	affected, err := s.selections.Delete(ctx, studentID, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete selection")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotEnrolled, "course not selected")
	}
	return nil
}

// ListSelections returns the student's current selections with the credit total.
func (s *EnrollmentService) ListSelections(ctx context.Context, studentID string) ([]models.CourseSelectionDetail, int, error) {
	selections, err := s.selections.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list selections")
	}
	total := 0
	for _, sel := range selections {
		total += sel.Credit
	}
	return selections, total, nil
}
