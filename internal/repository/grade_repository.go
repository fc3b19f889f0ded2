package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// GradeRepository handles persistence of grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs the repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `id, student_id, course_id, teacher_id, score, grade_point, grade_level,
        exam_type, exam_date, academic_year, semester, comments, created_at, updated_at`

// FindByStudentAndCourse returns the single grade row for a (student, course) pair.
func (r *GradeRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Grade, error) {
	const query = `SELECT ` + gradeColumns + ` FROM grades WHERE student_id = $1 AND course_id = $2`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create persists a new grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, teacher_id, score, grade_point, grade_level,
        exam_type, exam_date, academic_year, semester, comments, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :teacher_id, :score, :grade_point, :grade_level,
        :exam_type, :exam_date, :academic_year, :semester, :comments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET score = :score, grade_point = :grade_point, grade_level = :grade_level,
        exam_type = :exam_type, exam_date = :exam_date, comments = :comments, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// ListByCourse returns the grades of a course with student info, ordered by username.
func (r *GradeRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.course_id, g.teacher_id, g.score, g.grade_point, g.grade_level,
        g.exam_type, g.exam_date, g.academic_year, g.semester, g.comments, g.created_at, g.updated_at,
        u.real_name AS student_name, u.username AS student_username,
        c.name AS course_name, c.code AS course_code, c.credit
        FROM grades g
        JOIN users u ON u.id = g.student_id
        JOIN courses c ON c.id = g.course_id
        WHERE g.course_id = $1
        ORDER BY u.username`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, courseID); err != nil {
		return nil, fmt.Errorf("list course grades: %w", err)
	}
	return grades, nil
}

// ListByStudent returns the student's grades with course info, newest first.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.course_id, g.teacher_id, g.score, g.grade_point, g.grade_level,
        g.exam_type, g.exam_date, g.academic_year, g.semester, g.comments, g.created_at, g.updated_at,
        u.real_name AS student_name, u.username AS student_username,
        c.name AS course_name, c.code AS course_code, c.credit
        FROM grades g
        JOIN users u ON u.id = g.student_id
        JOIN courses c ON c.id = g.course_id
        WHERE g.student_id = $1
        ORDER BY g.updated_at DESC`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// CountByCourse returns the number of grade rows saved for a course.
func (r *GradeRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM grades WHERE course_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, courseID); err != nil {
		return 0, fmt.Errorf("count course grades: %w", err)
	}
	return total, nil
}

// ListFailingByStudent returns the student's failing grades for a term,
// joined with course names so alerts can list what was failed.
func (r *GradeRepository) ListFailingByStudent(ctx context.Context, studentID, academicYear, semester string) ([]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.course_id, g.teacher_id, g.score, g.grade_point, g.grade_level,
        g.exam_type, g.exam_date, g.academic_year, g.semester, g.comments, g.created_at, g.updated_at,
        u.real_name AS student_name, u.username AS student_username,
        c.name AS course_name, c.code AS course_code, c.credit
        FROM grades g
        JOIN users u ON u.id = g.student_id
        JOIN courses c ON c.id = g.course_id
        WHERE g.student_id = $1 AND g.academic_year = $2 AND g.semester = $3 AND g.score IS NOT NULL AND g.score < $4
        ORDER BY g.score`
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, studentID, academicYear, semester, models.PassingScore); err != nil {
		return nil, fmt.Errorf("list failing grades: %w", err)
	}
	return grades, nil
}
