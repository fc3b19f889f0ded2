package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/campus-api/internal/models"
)

// ErrDuplicateSelection surfaces the unique(student_id, course_id)
// constraint so the service can map a concurrent double-enroll to the
// same outcome as the pre-insert existence check.
var ErrDuplicateSelection = errors.New("selection already exists")

// SelectionRepository handles persistence of course selections.
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// Exists reports whether the student already selected the course.
func (r *SelectionRepository) Exists(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM selected_courses WHERE student_id = $1 AND course_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check selection: %w", err)
	}
	return true, nil
}

// Create persists a new course selection. A unique-constraint violation
// is reported as ErrDuplicateSelection.
func (r *SelectionRepository) Create(ctx context.Context, selection *models.CourseSelection) error {
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	if selection.SelectedAt.IsZero() {
		selection.SelectedAt = time.Now().UTC()
	}
	const query = `INSERT INTO selected_courses (id, student_id, course_id, academic_year, semester, selected_at)
        VALUES (:id, :student_id, :course_id, :academic_year, :semester, :selected_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selection); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateSelection
		}
		return fmt.Errorf("create selection: %w", err)
	}
	return nil
}

// Delete removes the selection for (student, course), returning the number
// of affected rows so the caller can distinguish "was never enrolled".
func (r *SelectionRepository) Delete(ctx context.Context, studentID, courseID string) (int64, error) {
	const query = `DELETE FROM selected_courses WHERE student_id = $1 AND course_id = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID)
	if err != nil {
		return 0, fmt.Errorf("delete selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete selection rows affected: %w", err)
	}
	return affected, nil
}

// ListByStudent returns the student's selections with course and teacher info.
func (r *SelectionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CourseSelectionDetail, error) {
	const query = `SELECT sc.id, sc.student_id, sc.course_id, sc.academic_year, sc.semester, sc.selected_at,
        c.name AS course_name, c.code AS course_code, c.credit, u.real_name AS teacher_name
        FROM selected_courses sc
        JOIN courses c ON c.id = sc.course_id
        LEFT JOIN users u ON u.id = c.teacher_id
        WHERE sc.student_id = $1
        ORDER BY sc.selected_at DESC`
	var selections []models.CourseSelectionDetail
	if err := r.db.SelectContext(ctx, &selections, query, studentID); err != nil {
		return nil, fmt.Errorf("list student selections: %w", err)
	}
	return selections, nil
}

// SumCredits totals the credit of every course the student currently has selected.
func (r *SelectionRepository) SumCredits(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COALESCE(SUM(c.credit), 0)
        FROM selected_courses sc
        JOIN courses c ON c.id = sc.course_id
        WHERE sc.student_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, studentID); err != nil {
		return 0, fmt.Errorf("sum selected credits: %w", err)
	}
	return total, nil
}

// CountByCourse returns the number of students enrolled in a course.
func (r *SelectionRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM selected_courses WHERE course_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, courseID); err != nil {
		return 0, fmt.Errorf("count course selections: %w", err)
	}
	return total, nil
}

// ListStudentsByCourse returns the enrolled students of a course ordered by username.
func (r *SelectionRepository) ListStudentsByCourse(ctx context.Context, courseID string) ([]models.User, error) {
	const query = `SELECT u.id, u.username, u.email, u.password_hash, u.real_name, u.role, u.class_id, u.created_at
        FROM selected_courses sc
        JOIN users u ON u.id = sc.student_id
        WHERE sc.course_id = $1
        ORDER BY u.username`
	var students []models.User
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}
