package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/conflict"
	"github.com/campushq/campus-api/internal/models"
)

// ErrBookingOverlap is returned by Approve when another booking for the
// same classroom and date was approved after this one was submitted.
var ErrBookingOverlap = errors.New("booking overlaps an approved booking")

// BookingFilter narrows booking listings.
type BookingFilter struct {
	ClassroomID string
	UserID      string
	Status      models.BookingStatus
	Page        int
	PageSize    int
}

// BookingRepository handles persistence of classroom bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, classroom_id, user_id, booking_date, start_time, end_time, purpose,
        attendees, status, reject_reason, reviewed_by, reviewed_at, created_at`

// FindByID returns a booking by its ID.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM classroom_bookings WHERE id = $1`
	var booking models.ClassroomBooking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListByClassroomAndDate returns bookings with the given status for a
// classroom on a date.
func (r *BookingRepository) ListByClassroomAndDate(ctx context.Context, classroomID, date string, status models.BookingStatus) ([]models.ClassroomBooking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM classroom_bookings
        WHERE classroom_id = $1 AND booking_date = $2 AND status = $3
        ORDER BY start_time`
	var bookings []models.ClassroomBooking
	if err := r.db.SelectContext(ctx, &bookings, query, classroomID, date, status); err != nil {
		return nil, fmt.Errorf("list classroom bookings: %w", err)
	}
	return bookings, nil
}

// List returns booking details filtered by classroom, requester and status,
// newest first.
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter) ([]models.BookingDetail, int, error) {
	base := `FROM classroom_bookings b
        JOIN classrooms cr ON cr.id = b.classroom_id
        JOIN users u ON u.id = b.user_id`
	var conditions []string
	var args []interface{}

	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("b.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("b.user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("b.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE "
		for i, c := range conditions {
			if i > 0 {
				clause += " AND "
			}
			clause += c
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT b.id, b.classroom_id, b.user_id, b.booking_date, b.start_time, b.end_time,
        b.purpose, b.attendees, b.status, b.reject_reason, b.reviewed_by, b.reviewed_at, b.created_at,
        cr.room_number, cr.building, u.real_name AS requester_name
        %s ORDER BY b.created_at DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

// Create persists a new booking with status pending.
func (r *BookingRepository) Create(ctx context.Context, booking *models.ClassroomBooking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO classroom_bookings (id, classroom_id, user_id, booking_date, start_time, end_time,
        purpose, attendees, status, created_at)
        VALUES (:id, :classroom_id, :user_id, :booking_date, :start_time, :end_time,
        :purpose, :attendees, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Approve flips a pending booking to approved after re-checking, inside a
// row-locked transaction, that no other approved booking for the same
// classroom and date overlaps it. Two concurrent approvals of overlapping
// pending bookings serialize on the lock so only the first succeeds.
func (r *BookingRepository) Approve(ctx context.Context, id, reviewerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin approve booking: %w", err)
	}
	defer tx.Rollback()

	const lockQuery = `SELECT ` + bookingColumns + ` FROM classroom_bookings WHERE id = $1 FOR UPDATE`
	var booking models.ClassroomBooking
	if err := tx.GetContext(ctx, &booking, lockQuery, id); err != nil {
		return err
	}

	const siblingsQuery = `SELECT ` + bookingColumns + ` FROM classroom_bookings
        WHERE classroom_id = $1 AND booking_date = $2 AND status = $3 AND id <> $4
        FOR UPDATE`
	var approved []models.ClassroomBooking
	if err := tx.SelectContext(ctx, &approved, siblingsQuery, booking.ClassroomID, booking.BookingDate, models.BookingStatusApproved, id); err != nil {
		return fmt.Errorf("list approved siblings: %w", err)
	}
	if _, clash := conflict.FindBookingConflict(booking.StartTime, booking.EndTime, id, approved); clash {
		return ErrBookingOverlap
	}

	const updateQuery = `UPDATE classroom_bookings SET status = $2, reviewed_by = $3, reviewed_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, id, models.BookingStatusApproved, reviewerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("approve booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit approve booking: %w", err)
	}
	return nil
}

// Reject flips a booking to rejected and records the reason.
func (r *BookingRepository) Reject(ctx context.Context, id, reviewerID, reason string) error {
	const query = `UPDATE classroom_bookings SET status = $2, reject_reason = $3, reviewed_by = $4, reviewed_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, models.BookingStatusRejected, reason, reviewerID, time.Now().UTC()); err != nil {
		return fmt.Errorf("reject booking: %w", err)
	}
	return nil
}

// ExpirePending rejects pending bookings whose date has already passed.
func (r *BookingRepository) ExpirePending(ctx context.Context, before string) (int64, error) {
	const query = `
		UPDATE classroom_bookings
		SET status = $1, reject_reason = $2
		WHERE status = $3 AND booking_date < $4`
	res, err := r.db.ExecContext(ctx, query, models.BookingStatusRejected, "expired before review", models.BookingStatusPending, before)
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire pending bookings rows affected: %w", err)
	}
	return affected, nil
}

// Delete removes the caller's own pending booking.
func (r *BookingRepository) Delete(ctx context.Context, id, userID string) (int64, error) {
	const query = `DELETE FROM classroom_bookings WHERE id = $1 AND user_id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, userID, models.BookingStatusPending)
	if err != nil {
		return 0, fmt.Errorf("delete booking: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete booking rows affected: %w", err)
	}
	return affected, nil
}
