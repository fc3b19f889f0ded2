package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AlertStatus is the lifecycle state of an academic alert.
// Only active alerts count toward a student's open-alert view.
type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "ACTIVE"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

// AlertLevel grades alert severity. L1 is more severe than L2.
type AlertLevel string

const (
	AlertLevelFirst  AlertLevel = "L1"
	AlertLevelSecond AlertLevel = "L2"
)

// FailedCourses is a JSON-encoded list of course names stored in a text
// column. Older rows may hold a bare course name instead of a JSON array;
// those decode as a single-element list.
type FailedCourses []string

// Scan implements sql.Scanner.
func (f *FailedCourses) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var raw string
	switch v := value.(type) {
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("scan failed courses: unsupported type %T", value)
	}
	if raw == "" {
		*f = nil
		return nil
	}
	if raw[0] != '[' {
		*f = FailedCourses{raw}
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return fmt.Errorf("decode failed courses: %w", err)
	}
	*f = list
	return nil
}

// Value implements driver.Valuer.
func (f FailedCourses) Value() (driver.Value, error) {
	if f == nil {
		f = FailedCourses{}
	}
	b, err := json.Marshal([]string(f))
	if err != nil {
		return nil, fmt.Errorf("encode failed courses: %w", err)
	}
	return string(b), nil
}

// AcademicAlert flags a student whose failed-course count crossed a
// configured threshold for an academic term.
type AcademicAlert struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	CounselorID   string        `db:"counselor_id" json:"counselor_id"`
	AcademicYear  string        `db:"academic_year" json:"academic_year"`
	Semester      string        `db:"semester" json:"semester"`
	Level         AlertLevel    `db:"level" json:"level"`
	FailedCount   int           `db:"failed_count" json:"failed_count"`
	FailedCourses FailedCourses `db:"failed_courses" json:"failed_courses"`
	Status        AlertStatus   `db:"status" json:"status"`
	ResolvedBy    *string       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// AlertDetail joins an alert with student info for counselor views.
type AlertDetail struct {
	AcademicAlert
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	ClassName     string `db:"class_name" json:"class_name"`
}

// CounselingRecord documents a counselor's follow-up on an alert.
type CounselingRecord struct {
	ID             string    `db:"id" json:"id"`
	AlertID        string    `db:"alert_id" json:"alert_id"`
	CounselorID    string    `db:"counselor_id" json:"counselor_id"`
	CounselingTime time.Time `db:"counseling_time" json:"counseling_time"`
	Content        string    `db:"content" json:"content"`
	Plan           string    `db:"plan" json:"plan"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// CounselingRecordDetail joins a counseling record with the counselor's name.
type CounselingRecordDetail struct {
	CounselingRecord
	CounselorName string `db:"counselor_name" json:"counselor_name"`
}
