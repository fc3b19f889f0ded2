package models

import "time"

// Grade stores the single score record for a (student, course) pair.
// GradePoint and GradeLevel are derived from Score whenever a score is set.
type Grade struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	CourseID     string     `db:"course_id" json:"course_id"`
	TeacherID    string     `db:"teacher_id" json:"teacher_id"`
	Score        *float64   `db:"score" json:"score,omitempty"`
	GradePoint   *float64   `db:"grade_point" json:"grade_point,omitempty"`
	GradeLevel   *string    `db:"grade_level" json:"grade_level,omitempty"`
	ExamType     string     `db:"exam_type" json:"exam_type"`
	ExamDate     *time.Time `db:"exam_date" json:"exam_date,omitempty"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	Semester     string     `db:"semester" json:"semester"`
	Comments     string     `db:"comments" json:"comments"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// GradeDetail enriches Grade with student and course info.
type GradeDetail struct {
	Grade
	StudentName     string `db:"student_name" json:"student_name"`
	StudentUsername string `db:"student_username" json:"student_username"`
	CourseName      string `db:"course_name" json:"course_name"`
	CourseCode      string `db:"course_code" json:"course_code"`
	Credit          int    `db:"credit" json:"credit"`
}

// GradePoint maps a percentage score to its grade point.
func GradePoint(score float64) float64 {
	switch {
	case score >= 90:
		return 4.0
	case score >= 80:
		return 3.0
	case score >= 70:
		return 2.0
	case score >= 60:
		return 1.0
	default:
		return 0.0
	}
}

// GradeLevel maps a percentage score to its letter grade.
func GradeLevel(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// PassingScore is the threshold below which a course counts as failed.
const PassingScore = 60.0

// GradeStatistics summarises recorded scores for a course.
type GradeStatistics struct {
	TotalStudents int            `json:"total_students"`
	AverageScore  float64        `json:"average_score"`
	MaxScore      float64        `json:"max_score"`
	MinScore      float64        `json:"min_score"`
	PassCount     int            `json:"pass_count"`
	FailCount     int            `json:"fail_count"`
	PassRate      float64        `json:"pass_rate"`
	Distribution  map[string]int `json:"score_distribution"`
}

// StudentGradeSummary aggregates a student's transcript.
type StudentGradeSummary struct {
	Grades       []GradeDetail `json:"grades"`
	TotalCredits int           `json:"total_credits"`
	AverageGPA   float64       `json:"average_gpa"`
	CourseCount  int           `json:"course_count"`
}
