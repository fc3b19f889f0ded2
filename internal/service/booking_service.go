package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/conflict"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type bookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error)
	ListByClassroomAndDate(ctx context.Context, classroomID, date string, status models.BookingStatus) ([]models.ClassroomBooking, error)
	List(ctx context.Context, filter repository.BookingFilter) ([]models.BookingDetail, int, error)
	Create(ctx context.Context, booking *models.ClassroomBooking) error
	Approve(ctx context.Context, id, reviewerID string) error
	Reject(ctx context.Context, id, reviewerID, reason string) error
	Delete(ctx context.Context, id, userID string) (int64, error)
}

type classroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	List(ctx context.Context) ([]models.Classroom, error)
}

// SubmitBookingRequest describes a classroom booking request.
type SubmitBookingRequest struct {
	ClassroomID string `json:"classroom_id" validate:"required"`
	BookingDate string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime   string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     string `json:"end_time" validate:"required,datetime=15:04"`
	Purpose     string `json:"purpose" validate:"required"`
	Attendees   int    `json:"attendees" validate:"required,min=1"`
}

// RejectBookingRequest carries the reviewer's rejection reason.
type RejectBookingRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// BookingService orchestrates classroom reservations.
type BookingService struct {
	bookings   bookingRepository
	classrooms classroomReader
	now        func() time.Time
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewBookingService constructs BookingService.
func NewBookingService(bookings bookingRepository, classrooms classroomReader, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		bookings:   bookings,
		classrooms: classrooms,
		now:        time.Now,
		validator:  validate,
		logger:     logger,
	}
}

// Submit records a pending booking after validating the interval, date,
// classroom availability, capacity and overlap with approved bookings.
// Pending bookings never block other submissions.
func (s *BookingService) Submit(ctx context.Context, userID string, req SubmitBookingRequest) (*models.ClassroomBooking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if !conflict.ValidInterval(req.StartTime, req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "end time must be after start time")
	}
	today := s.now().Format("2006-01-02")
	if req.BookingDate < today {
		return nil, appErrors.Clone(appErrors.ErrPastDate, "booking date must not be in the past")
	}

	classroom, err := s.classrooms.FindByID(ctx, req.ClassroomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if classroom.Status != models.ClassroomStatusAvailable {
		return nil, appErrors.Clone(appErrors.ErrClassroomUnavailable, "classroom is not available")
	}
	if conflict.ExceedsCapacity(req.Attendees, classroom.Capacity) {
		return nil, appErrors.Clone(appErrors.ErrCapacityExceeded, "participants exceed classroom capacity")
	}

	approved, err := s.bookings.ListByClassroomAndDate(ctx, req.ClassroomID, req.BookingDate, models.BookingStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom bookings")
	}
	if _, clash := conflict.FindBookingConflict(req.StartTime, req.EndTime, "", approved); clash {
		return nil, appErrors.Clone(appErrors.ErrBookingConflict, "classroom already booked for that time")
	}

	booking := &models.ClassroomBooking{
		ClassroomID: req.ClassroomID,
		UserID:      userID,
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Purpose:     req.Purpose,
		Attendees:   req.Attendees,
		Status:      models.BookingStatusPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	return booking, nil
}

// Approve flips a pending booking to approved. The repository re-validates
// overlap against approved bookings inside a row-locked transaction, so an
// overlapping pending booking approved in between is caught here.
func (s *BookingService) Approve(ctx context.Context, id, reviewerID string) error {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if booking.Status != models.BookingStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidStatus, "only pending bookings can be approved")
	}
	if err := s.bookings.Approve(ctx, id, reviewerID); err != nil {
		if errors.Is(err, repository.ErrBookingOverlap) {
			return appErrors.Clone(appErrors.ErrBookingConflict, "classroom already booked for that time")
		}
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve booking")
	}
	return nil
}

// Reject flips a pending booking to rejected with a reason.
func (s *BookingService) Reject(ctx context.Context, id, reviewerID string, req RejectBookingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if booking.Status != models.BookingStatusPending {
		return appErrors.Clone(appErrors.ErrInvalidStatus, "only pending bookings can be rejected")
	}
	if err := s.bookings.Reject(ctx, id, reviewerID, req.Reason); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject booking")
	}
	return nil
}

// Cancel deletes the caller's own pending booking.
func (s *BookingService) Cancel(ctx context.Context, id, userID string) error {
	affected, err := s.bookings.Delete(ctx, id, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "pending booking not found")
	}
	return nil
}

// List returns booking details with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter repository.BookingFilter) ([]models.BookingDetail, *models.Pagination, error) {
	bookings, total, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// ListClassrooms returns all classrooms.
func (s *BookingService) ListClassrooms(ctx context.Context) ([]models.Classroom, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, nil
}
