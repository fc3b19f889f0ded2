package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// CourseFilter narrows course listings. ExcludeSelectedBy drops courses the
// given student has already selected.
type CourseFilter struct {
	TeacherID         string
	ClassID           string
	ExcludeSelectedBy string
	Page              int
	PageSize          int
}

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, code, name, teacher_id, class_id, credit, grades_saved, grades_submitted, grades_submitted_at, created_at`

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with its teacher's name.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.code, c.name, c.teacher_id, c.class_id, c.credit, c.grades_saved,
        c.grades_submitted, c.grades_submitted_at, c.created_at, u.real_name AS teacher_name
        FROM courses c
        LEFT JOIN users u ON u.id = c.teacher_id
        WHERE c.id = $1`
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns courses filtered by teacher and class with pagination.
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c LEFT JOIN users u ON u.id = c.teacher_id`
	var conditions []string
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ClassID != "" {
		conditions = append(conditions, fmt.Sprintf("c.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.ExcludeSelectedBy != "" {
		conditions = append(conditions, fmt.Sprintf(
			"NOT EXISTS (SELECT 1 FROM selected_courses sc WHERE sc.course_id = c.id AND sc.student_id = $%d)", len(args)+1))
		args = append(args, filter.ExcludeSelectedBy)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT c.id, c.code, c.name, c.teacher_id, c.class_id, c.credit, c.grades_saved,
        c.grades_submitted, c.grades_submitted_at, c.created_at, u.real_name AS teacher_name
        %s ORDER BY c.code LIMIT %d OFFSET %d`, base+clause, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Create persists a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	const query = `INSERT INTO courses (id, code, name, teacher_id, class_id, credit)
        VALUES (:id, :code, :name, :teacher_id, :class_id, :credit)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// MarkGradesSaved flags that at least one grade batch was saved for the course.
func (r *CourseRepository) MarkGradesSaved(ctx context.Context, id string) error {
	const query = `UPDATE courses SET grades_saved = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("mark grades saved: %w", err)
	}
	return nil
}

// ResetGradesSaved clears the saved-grades flag so the teacher can start a
// fresh grading round.
func (r *CourseRepository) ResetGradesSaved(ctx context.Context, id string) error {
	const query = `UPDATE courses SET grades_saved = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("reset grades saved: %w", err)
	}
	return nil
}

// MarkGradesSubmitted records the grade publication timestamp.
func (r *CourseRepository) MarkGradesSubmitted(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE courses SET grades_submitted = TRUE, grades_submitted_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("mark grades submitted: %w", err)
	}
	return nil
}

// Count returns the total number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM courses`
	var total int
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}
