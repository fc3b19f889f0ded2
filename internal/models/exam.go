package models

import "time"

// Exam schedules an examination for a course. The time interval is
// half-open "HH:MM" like regular schedule slots.
type Exam struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	ExamDate     string    `db:"exam_date" json:"exam_date"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	Location     string    `db:"location" json:"location"`
	ExamType     string    `db:"exam_type" json:"exam_type"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     string    `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExamDetail joins an exam with its course name for student views.
type ExamDetail struct {
	Exam
	CourseName  string `db:"course_name" json:"course_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
