package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// AlertFilter narrows alert listings.
type AlertFilter struct {
	CounselorID string
	StudentID   string
	Status      models.AlertStatus
}

// AlertRepository handles persistence of academic alerts and their
// counseling records.
type AlertRepository struct {
	db *sqlx.DB
}

// NewAlertRepository constructs the repository.
func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, student_id, counselor_id, academic_year, semester, level, failed_count,
        failed_courses, status, resolved_by, resolved_at, created_at`

// FindByID returns an alert by its ID.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*models.AcademicAlert, error) {
	const query = `SELECT ` + alertColumns + ` FROM academic_alerts WHERE id = $1`
	var alert models.AcademicAlert
	if err := r.db.GetContext(ctx, &alert, query, id); err != nil {
		return nil, err
	}
	return &alert, nil
}

// ExistsActiveForTerm reports whether the student already has an active
// alert for the academic year and semester.
func (r *AlertRepository) ExistsActiveForTerm(ctx context.Context, studentID, academicYear, semester string) (bool, error) {
	const query = `SELECT 1 FROM academic_alerts
        WHERE student_id = $1 AND academic_year = $2 AND semester = $3 AND status = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, academicYear, semester, models.AlertStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check alert: %w", err)
	}
	return true, nil
}

// Create persists a new alert with status active.
func (r *AlertRepository) Create(ctx context.Context, alert *models.AcademicAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = models.AlertStatusActive
	}
	const query = `INSERT INTO academic_alerts (id, student_id, counselor_id, academic_year, semester, level,
        failed_count, failed_courses, status)
        VALUES (:id, :student_id, :counselor_id, :academic_year, :semester, :level,
        :failed_count, :failed_courses, :status)`
	if _, err := r.db.NamedExecContext(ctx, query, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	return nil
}

// List returns alert details ordered by severity then creation time.
func (r *AlertRepository) List(ctx context.Context, filter AlertFilter) ([]models.AlertDetail, error) {
	query := `SELECT a.id, a.student_id, a.counselor_id, a.academic_year, a.semester, a.level, a.failed_count,
        a.failed_courses, a.status, a.resolved_by, a.resolved_at, a.created_at,
        u.real_name AS student_name, u.username AS student_number, c.name AS class_name
        FROM academic_alerts a
        JOIN users u ON u.id = a.student_id
        LEFT JOIN classes c ON c.id = u.class_id`
	var conditions []string
	var args []interface{}

	if filter.CounselorID != "" {
		conditions = append(conditions, fmt.Sprintf("a.counselor_id = $%d", len(args)+1))
		args = append(args, filter.CounselorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	for i, c := range conditions {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += " ORDER BY a.level, a.created_at DESC"

	var alerts []models.AlertDetail
	if err := r.db.SelectContext(ctx, &alerts, query, args...); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// UpdateStatus transitions an alert between active and resolved.
func (r *AlertRepository) UpdateStatus(ctx context.Context, id string, status models.AlertStatus, resolvedBy *string, resolvedAt *time.Time) error {
	const query = `UPDATE academic_alerts SET status = $2, resolved_by = $3, resolved_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, resolvedBy, resolvedAt); err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	return nil
}

// CreateCounselingRecord appends a follow-up record to an alert.
func (r *AlertRepository) CreateCounselingRecord(ctx context.Context, record *models.CounselingRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CounselingTime.IsZero() {
		record.CounselingTime = time.Now().UTC()
	}
	const query = `INSERT INTO counseling_records (id, alert_id, counselor_id, counseling_time, content, plan)
        VALUES (:id, :alert_id, :counselor_id, :counseling_time, :content, :plan)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create counseling record: %w", err)
	}
	return nil
}

// ListCounselingRecords returns an alert's follow-up records, oldest first.
func (r *AlertRepository) ListCounselingRecords(ctx context.Context, alertID string) ([]models.CounselingRecordDetail, error) {
	const query = `SELECT cr.id, cr.alert_id, cr.counselor_id, cr.counseling_time, cr.content, cr.plan, cr.created_at,
        u.real_name AS counselor_name
        FROM counseling_records cr
        LEFT JOIN users u ON u.id = cr.counselor_id
        WHERE cr.alert_id = $1
        ORDER BY cr.counseling_time`
	var records []models.CounselingRecordDetail
	if err := r.db.SelectContext(ctx, &records, query, alertID); err != nil {
		return nil, fmt.Errorf("list counseling records: %w", err)
	}
	return records, nil
}
