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

type mockBookingRepo struct {
	bookings   map[string]models.ClassroomBooking
	approved   []models.ClassroomBooking
	created    *models.ClassroomBooking
	approveErr error
	rejected   []string
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error) {
	if b, ok := m.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) ListByClassroomAndDate(ctx context.Context, classroomID, date string, status models.BookingStatus) ([]models.ClassroomBooking, error) {
	var out []models.ClassroomBooking
	for _, b := range m.approved {
		if b.ClassroomID == classroomID && b.BookingDate == date && b.Status == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) List(ctx context.Context, filter repository.BookingFilter) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.ClassroomBooking) error {
	m.created = booking
	return nil
}

func (m *mockBookingRepo) Approve(ctx context.Context, id, reviewerID string) error {
	return m.approveErr
}

func (m *mockBookingRepo) Reject(ctx context.Context, id, reviewerID, reason string) error {
	m.rejected = append(m.rejected, id)
	return nil
}

func (m *mockBookingRepo) Delete(ctx context.Context, id, userID string) (int64, error) {
	return 0, nil
}

type mockClassroomReader struct {
	classrooms map[string]models.Classroom
}

func (m *mockClassroomReader) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassroomReader) List(ctx context.Context) ([]models.Classroom, error) {
	var out []models.Classroom
	for _, c := range m.classrooms {
		out = append(out, c)
	}
	return out, nil
}

func newBookingService(bookings *mockBookingRepo, classrooms *mockClassroomReader) *BookingService {
	svc := NewBookingService(bookings, classrooms, nil, zap.NewNop())
	svc.now = func() time.Time {
		return time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)
	}
	return svc
}

func availableRoom() *mockClassroomReader {
	return &mockClassroomReader{classrooms: map[string]models.Classroom{
		"room-1": {ID: "room-1", Capacity: 60, Status: models.ClassroomStatusAvailable},
	}}
}

func validBooking() SubmitBookingRequest {
	return SubmitBookingRequest{
		ClassroomID: "room-1",
		BookingDate: "2026-09-10",
		StartTime:   "14:00",
		EndTime:     "16:00",
		Purpose:     "study group",
		Attendees:   10,
	}
}

func TestSubmitBookingSuccess(t *testing.T) {
	bookings := &mockBookingRepo{}
	svc := newBookingService(bookings, availableRoom())

	booking, err := svc.Submit(context.Background(), "stu-1", validBooking())
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusPending, booking.Status)
	assert.Equal(t, "stu-1", booking.UserID)
}

func TestSubmitBookingInvalidInterval(t *testing.T) {
	svc := newBookingService(&mockBookingRepo{}, availableRoom())

	req := validBooking()
	req.StartTime = "16:00"
	req.EndTime = "14:00"
	_, err := svc.Submit(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)

	req.EndTime = "16:00"
	_, err = svc.Submit(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}

func TestSubmitBookingPastDate(t *testing.T) {
	svc := newBookingService(&mockBookingRepo{}, availableRoom())

	req := validBooking()
	req.BookingDate = "2026-08-31"
	_, err := svc.Submit(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPastDate.Code, appErrors.FromError(err).Code)
}

func TestSubmitBookingClassroomUnavailable(t *testing.T) {
	classrooms := &mockClassroomReader{classrooms: map[string]models.Classroom{
		"room-1": {ID: "room-1", Capacity: 60, Status: models.ClassroomStatusMaintenance},
	}}
	svc := newBookingService(&mockBookingRepo{}, classrooms)

	_, err := svc.Submit(context.Background(), "stu-1", validBooking())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClassroomUnavailable.Code, appErrors.FromError(err).Code)
}

func TestSubmitBookingCapacityExceeded(t *testing.T) {
	svc := newBookingService(&mockBookingRepo{}, availableRoom())

	req := validBooking()
	req.Attendees = 61
	_, err := svc.Submit(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCapacityExceeded.Code, appErrors.FromError(err).Code)
}

func TestSubmitBookingConflictAgainstApproved(t *testing.T) {
	bookings := &mockBookingRepo{approved: []models.ClassroomBooking{{
		ID: "bk-1", ClassroomID: "room-1", BookingDate: "2026-09-10",
		StartTime: "14:00", EndTime: "16:00", Status: models.BookingStatusApproved,
	}}}
	svc := newBookingService(bookings, availableRoom())

	req := validBooking()
	req.StartTime = "15:00"
	req.EndTime = "17:00"
	_, err := svc.Submit(context.Background(), "stu-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBookingConflict.Code, appErrors.FromError(err).Code)

	req.StartTime = "16:00"
	req.EndTime = "18:00"
	_, err = svc.Submit(context.Background(), "stu-1", req)
	require.NoError(t, err, "booking that starts when the approved one ends is allowed")
}

func TestSubmitBookingPendingDoesNotBlock(t *testing.T) {
	bookings := &mockBookingRepo{approved: []models.ClassroomBooking{{
		ID: "bk-1", ClassroomID: "room-1", BookingDate: "2026-09-10",
		StartTime: "14:00", EndTime: "16:00", Status: models.BookingStatusPending,
	}}}
	svc := newBookingService(bookings, availableRoom())

	_, err := svc.Submit(context.Background(), "stu-2", validBooking())
	require.NoError(t, err)
}

func TestApproveBookingOverlapDetectedInTransaction(t *testing.T) {
	bookings := &mockBookingRepo{
		bookings: map[string]models.ClassroomBooking{
			"bk-2": {ID: "bk-2", Status: models.BookingStatusPending},
		},
		approveErr: repository.ErrBookingOverlap,
	}
	svc := newBookingService(bookings, availableRoom())

	err := svc.Approve(context.Background(), "bk-2", "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBookingConflict.Code, appErrors.FromError(err).Code)
}

func TestApproveBookingRequiresPendingStatus(t *testing.T) {
	bookings := &mockBookingRepo{bookings: map[string]models.ClassroomBooking{
		"bk-3": {ID: "bk-3", Status: models.BookingStatusApproved},
	}}
	svc := newBookingService(bookings, availableRoom())

	err := svc.Approve(context.Background(), "bk-3", "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}
