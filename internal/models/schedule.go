package models

import "time"

// Schedule is a recurring weekly meeting of a course. Times are zero-padded
// HH:MM clock strings; DayOfWeek runs 1 (Monday) through 7 (Sunday).
type Schedule struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Location  string    `db:"location" json:"location"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ScheduleDetail enriches Schedule with course and teacher names.
type ScheduleDetail struct {
	Schedule
	CourseName  string `db:"course_name" json:"course_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
