package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// LeaveRepository handles persistence of leave applications.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

const leaveColumns = `id, student_id, leave_type, start_date, end_date, reason, attachment, approver_id, status,
        reject_reason, reviewed_by, reviewed_at, created_at`

// FindByID returns a leave application by its ID.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveApplication, error) {
	const query = `SELECT ` + leaveColumns + ` FROM leave_applications WHERE id = $1`
	var leave models.LeaveApplication
	if err := r.db.GetContext(ctx, &leave, query, id); err != nil {
		return nil, err
	}
	return &leave, nil
}

// Create persists a new leave application with status pending.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.LeaveApplication) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.Status == "" {
		leave.Status = models.LeaveStatusPending
	}
	const query = `INSERT INTO leave_applications (id, student_id, leave_type, start_date, end_date, reason, attachment, approver_id, status)
        VALUES (:id, :student_id, :leave_type, :start_date, :end_date, :reason, :attachment, :approver_id, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, leave); err != nil {
		return fmt.Errorf("create leave application: %w", err)
	}
	return nil
}

// ListByStudent returns the student's leave applications, newest first.
func (r *LeaveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveApplication, error) {
	const query = `SELECT ` + leaveColumns + ` FROM leave_applications WHERE student_id = $1 ORDER BY created_at DESC`
	var leaves []models.LeaveApplication
	if err := r.db.SelectContext(ctx, &leaves, query, studentID); err != nil {
		return nil, fmt.Errorf("list student leaves: %w", err)
	}
	return leaves, nil
}

// ListForCounselor returns leave details for the classes a counselor
// supervises, optionally narrowed to one status, newest first.
func (r *LeaveRepository) ListForCounselor(ctx context.Context, counselorID string, status models.LeaveStatus) ([]models.LeaveDetail, error) {
	query := `SELECT l.id, l.student_id, l.leave_type, l.start_date, l.end_date, l.reason, l.attachment, l.approver_id, l.status,
        l.reject_reason, l.reviewed_by, l.reviewed_at, l.created_at,
        u.real_name AS student_name, u.username AS student_number, c.name AS class_name
        FROM leave_applications l
        JOIN users u ON u.id = l.student_id
        JOIN classes c ON c.id = u.class_id
        WHERE c.counselor_id = $1`
	args := []interface{}{counselorID}
	if status != "" {
		query += " AND l.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY l.created_at DESC"
	var leaves []models.LeaveDetail
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list counselor leaves: %w", err)
	}
	return leaves, nil
}

// UpdateStatus records the review outcome of a leave application.
func (r *LeaveRepository) UpdateStatus(ctx context.Context, id string, status models.LeaveStatus, reviewerID string, rejectReason *string) error {
	const query = `UPDATE leave_applications SET status = $2, reviewed_by = $3, reviewed_at = $4, reject_reason = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, reviewerID, time.Now().UTC(), rejectReason); err != nil {
		return fmt.Errorf("update leave status: %w", err)
	}
	return nil
}
