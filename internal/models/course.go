package models

import "time"

// Course represents a taught course owned by exactly one teacher.
type Course struct {
	ID                string     `db:"id" json:"id"`
	Code              string     `db:"code" json:"code"`
	Name              string     `db:"name" json:"name"`
	TeacherID         string     `db:"teacher_id" json:"teacher_id"`
	ClassID           string     `db:"class_id" json:"class_id"`
	Credit            int        `db:"credit" json:"credit"`
	GradesSaved       bool       `db:"grades_saved" json:"grades_saved"`
	GradesSubmitted   bool       `db:"grades_submitted" json:"grades_submitted"`
	GradesSubmittedAt *time.Time `db:"grades_submitted_at" json:"grades_submitted_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

// CourseDetail enriches Course with teacher info for listings.
type CourseDetail struct {
	Course
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
