package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// ExamRepository handles persistence of exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, course_id, exam_date, start_time, end_time, location, exam_type,
        academic_year, semester, created_at`

// FindByID returns an exam by its ID.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	const query = `SELECT ` + examColumns + ` FROM exams WHERE id = $1`
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// Create persists a new exam record.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	const query = `INSERT INTO exams (id, course_id, exam_date, start_time, end_time, location, exam_type,
        academic_year, semester)
        VALUES (:id, :course_id, :exam_date, :start_time, :end_time, :location, :exam_type,
        :academic_year, :semester)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// ListByCourse returns a course's exams in chronological order.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Exam, error) {
	const query = `SELECT ` + examColumns + ` FROM exams WHERE course_id = $1 ORDER BY exam_date, start_time`
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, courseID); err != nil {
		return nil, fmt.Errorf("list course exams: %w", err)
	}
	return exams, nil
}

// ListForStudent returns upcoming exams for the courses a student has
// selected, in chronological order.
func (r *ExamRepository) ListForStudent(ctx context.Context, studentID string) ([]models.ExamDetail, error) {
	const query = `SELECT e.id, e.course_id, e.exam_date, e.start_time, e.end_time, e.location, e.exam_type,
        e.academic_year, e.semester, e.created_at,
        c.name AS course_name, u.real_name AS teacher_name
        FROM exams e
        JOIN courses c ON c.id = e.course_id
        JOIN selected_courses sc ON sc.course_id = e.course_id
        LEFT JOIN users u ON u.id = c.teacher_id
        WHERE sc.student_id = $1
        ORDER BY e.exam_date, e.start_time`
	var exams []models.ExamDetail
	if err := r.db.SelectContext(ctx, &exams, query, studentID); err != nil {
		return nil, fmt.Errorf("list student exams: %w", err)
	}
	return exams, nil
}

// Delete removes an exam, returning the number of affected rows.
func (r *ExamRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM exams WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete exam: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete exam rows affected: %w", err)
	}
	return affected, nil
}
