package service

import (
	"context"
	"database/sql"
	"io"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/storage"
)

type leaveRepository interface {
	FindByID(ctx context.Context, id string) (*models.LeaveApplication, error)
	Create(ctx context.Context, leave *models.LeaveApplication) error
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveApplication, error)
	ListForCounselor(ctx context.Context, counselorID string, status models.LeaveStatus) ([]models.LeaveDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.LeaveStatus, reviewerID string, rejectReason *string) error
}

type leaveStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type leaveClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

// ApplyLeaveRequest submits a leave application.
type ApplyLeaveRequest struct {
	LeaveType string `json:"leave_type" validate:"required,oneof=SICK PERSONAL OTHER"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason" validate:"required"`
}

// ReviewLeaveRequest records the review outcome.
type ReviewLeaveRequest struct {
	Status       string  `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	RejectReason *string `json:"reject_reason"`
}

// LeaveService orchestrates leave applications and their review.
type LeaveService struct {
	leaves    leaveRepository
	students  leaveStudentReader
	classes   leaveClassReader
	files     *storage.LocalStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLeaveService constructs LeaveService.
func NewLeaveService(leaves leaveRepository, students leaveStudentReader, classes leaveClassReader, files *storage.LocalStorage, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		leaves:    leaves,
		students:  students,
		classes:   classes,
		files:     files,
		validator: validate,
		logger:    logger,
	}
}

// Apply submits a leave application. Both endpoint dates are inclusive. An
// optional attachment is stored alongside the record, and the approver is
// assigned to the counselor of the student's class when one exists.
func (s *LeaveService) Apply(ctx context.Context, studentID string, req ApplyLeaveRequest, attachment io.Reader, attachmentName string) (*models.LeaveApplication, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if req.EndDate < req.StartDate {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "end date must not precede start date")
	}

	leave := &models.LeaveApplication{
		StudentID: studentID,
		LeaveType: models.LeaveType(req.LeaveType),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		Status:    models.LeaveStatusPending,
	}

	approver, err := s.resolveApprover(ctx, studentID)
	if err != nil {
		return nil, err
	}
	leave.ApproverID = approver

	if attachment != nil && s.files != nil {
		storedName := storage.GenerateName(studentID, attachmentName)
		stored, _, err := s.files.SaveStream("leave_attachments", storedName, attachment)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attachment")
		}
		leave.Attachment = &stored
	}

	if err := s.leaves.Create(ctx, leave); err != nil {
		if leave.Attachment != nil {
			if removeErr := s.files.Delete(*leave.Attachment); removeErr != nil {
				s.logger.Warn("orphaned attachment left on disk", zap.String("file", *leave.Attachment), zap.Error(removeErr))
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create leave application")
	}
	return leave, nil
}

// resolveApprover returns the counselor of the student's class, or nil when
// the student has no class or the class has no counselor.
func (s *LeaveService) resolveApprover(ctx context.Context, studentID string) (*string, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.ClassID == nil {
		return nil, nil
	}
	class, err := s.classes.FindByID(ctx, *student.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class.CounselorID, nil
}

// ListByStudent returns the student's own applications, newest first.
func (s *LeaveService) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveApplication, error) {
	leaves, err := s.leaves.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave applications")
	}
	return leaves, nil
}

// ListForCounselor returns applications from the counselor's classes.
func (s *LeaveService) ListForCounselor(ctx context.Context, counselorID string, status models.LeaveStatus) ([]models.LeaveDetail, error) {
	leaves, err := s.leaves.ListForCounselor(ctx, counselorID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave applications")
	}
	return leaves, nil
}

// Review approves or rejects a pending application.
func (s *LeaveService) Review(ctx context.Context, id, reviewerID string, req ReviewLeaveRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	leave, err := s.leaves.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "leave application not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave application")
	}
	if leave.Status != models.LeaveStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidStatus, "only pending applications can be reviewed")
	}
	if leave.ApproverID != nil && *leave.ApproverID != reviewerID {
		return appErrors.Clone(appErrors.ErrForbidden, "application is assigned to another reviewer")
	}
	if err := s.leaves.UpdateStatus(ctx, id, models.LeaveStatus(req.Status), reviewerID, req.RejectReason); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update leave status")
	}
	return nil
}
