package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// ScheduleRepository handles persistence of course schedules.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, course_id, class_id, teacher_id, day_of_week, start_time, end_time, location, created_at`

// ListByCourse returns the weekly slots of a course.
func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Schedule, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM schedules WHERE course_id = $1 ORDER BY day_of_week, start_time`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, courseID); err != nil {
		return nil, fmt.Errorf("list course schedules: %w", err)
	}
	return schedules, nil
}

// ListByTeacher returns every weekly slot the teacher holds across all of
// their courses.
func (r *ScheduleRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM schedules WHERE teacher_id = $1 ORDER BY day_of_week, start_time`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher schedules: %w", err)
	}
	return schedules, nil
}

// ListByStudent returns the slots of every course the student currently has selected.
func (r *ScheduleRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Schedule, error) {
	const query = `SELECT s.id, s.course_id, s.class_id, s.teacher_id, s.day_of_week, s.start_time, s.end_time, s.location, s.created_at
        FROM schedules s
        JOIN selected_courses sc ON sc.course_id = s.course_id
        WHERE sc.student_id = $1
        ORDER BY s.day_of_week, s.start_time`
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, studentID); err != nil {
		return nil, fmt.Errorf("list student schedules: %w", err)
	}
	return schedules, nil
}

// ListDetailsByStudent returns the student's timetable with course and teacher names.
func (r *ScheduleRepository) ListDetailsByStudent(ctx context.Context, studentID string) ([]models.ScheduleDetail, error) {
	const query = `SELECT s.id, s.course_id, s.class_id, s.teacher_id, s.day_of_week, s.start_time, s.end_time, s.location, s.created_at,
        c.name AS course_name, c.code AS course_code, u.real_name AS teacher_name
        FROM schedules s
        JOIN selected_courses sc ON sc.course_id = s.course_id
        JOIN courses c ON c.id = s.course_id
        LEFT JOIN users u ON u.id = s.teacher_id
        WHERE sc.student_id = $1
        ORDER BY s.day_of_week, s.start_time`
	var details []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &details, query, studentID); err != nil {
		return nil, fmt.Errorf("list student timetable: %w", err)
	}
	return details, nil
}

// ListDetailsByTeacher returns the teacher's timetable with course names.
func (r *ScheduleRepository) ListDetailsByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleDetail, error) {
	const query = `SELECT s.id, s.course_id, s.class_id, s.teacher_id, s.day_of_week, s.start_time, s.end_time, s.location, s.created_at,
        c.name AS course_name, c.code AS course_code, u.real_name AS teacher_name
        FROM schedules s
        JOIN courses c ON c.id = s.course_id
        LEFT JOIN users u ON u.id = s.teacher_id
        WHERE s.teacher_id = $1
        ORDER BY s.day_of_week, s.start_time`
	var details []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &details, query, teacherID); err != nil {
		return nil, fmt.Errorf("list teacher timetable: %w", err)
	}
	return details, nil
}

// Create persists a new schedule slot.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	const query = `INSERT INTO schedules (id, course_id, class_id, teacher_id, day_of_week, start_time, end_time, location)
        VALUES (:id, :course_id, :class_id, :teacher_id, :day_of_week, :start_time, :end_time, :location)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

// Delete removes a schedule slot, returning the number of affected rows.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM schedules WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete schedule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete schedule rows affected: %w", err)
	}
	return affected, nil
}
