package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid username or password")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	// Enrollment workflow.
	ErrAlreadyEnrolled     = New("ALREADY_ENROLLED", http.StatusConflict, "student already enrolled in course")
	ErrNotEnrolled         = New("NOT_ENROLLED", http.StatusNotFound, "student not enrolled in course")
	ErrScheduleConflict    = New("SCHEDULE_CONFLICT", http.StatusConflict, "course schedule conflicts with an existing selection")
	ErrCreditLimitExceeded = New("CREDIT_LIMIT_EXCEEDED", http.StatusUnprocessableEntity, "credit limit exceeded")

	// Booking workflow.
	ErrInvalidInterval      = New("INVALID_INTERVAL", http.StatusBadRequest, "end time must be after start time")
	ErrPastDate             = New("PAST_DATE", http.StatusBadRequest, "booking date must not be in the past")
	ErrClassroomUnavailable = New("CLASSROOM_UNAVAILABLE", http.StatusUnprocessableEntity, "classroom is not available")
	ErrCapacityExceeded     = New("CAPACITY_EXCEEDED", http.StatusUnprocessableEntity, "participants exceed classroom capacity")
	ErrBookingConflict      = New("BOOKING_CONFLICT", http.StatusConflict, "classroom already booked for that time")

	// Grading and alerting workflows.
	ErrNoGradesSaved = New("NO_GRADES_SAVED", http.StatusPreconditionFailed, "no grades saved for course")
	ErrInvalidStatus = New("INVALID_STATUS", http.StatusBadRequest, "invalid status value")
	ErrAlertExists   = New("ALERT_EXISTS", http.StatusConflict, "active alert already exists for this student and term")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
