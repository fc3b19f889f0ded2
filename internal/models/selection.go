package models

import "time"

// CourseSelection records a student's enrollment in a course. The
// selected_courses table enforces unique(student_id, course_id).
type CourseSelection struct {
	ID           string    `db:"id" json:"id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     string    `db:"semester" json:"semester"`
	SelectedAt   time.Time `db:"selected_at" json:"selected_at"`
}

// CourseSelectionDetail enriches a selection with course and teacher info.
type CourseSelectionDetail struct {
	CourseSelection
	CourseName  string `db:"course_name" json:"course_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	Credit      int    `db:"credit" json:"credit"`
}
