package models

import "time"

// LeaveStatus is the review state of a leave application.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "PENDING"
	LeaveStatusApproved LeaveStatus = "APPROVED"
	LeaveStatusRejected LeaveStatus = "REJECTED"
)

// LeaveType categorises a leave application.
type LeaveType string

const (
	LeaveTypeSick     LeaveType = "SICK"
	LeaveTypePersonal LeaveType = "PERSONAL"
	LeaveTypeOther    LeaveType = "OTHER"
)

// LeaveApplication is a student's request for absence over a date range.
// Both endpoints are inclusive calendar dates ("2006-01-02").
type LeaveApplication struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	LeaveType    LeaveType   `db:"leave_type" json:"leave_type"`
	StartDate    string      `db:"start_date" json:"start_date"`
	EndDate      string      `db:"end_date" json:"end_date"`
	Reason       string      `db:"reason" json:"reason"`
	Attachment   *string     `db:"attachment" json:"attachment,omitempty"`
	ApproverID   *string     `db:"approver_id" json:"approver_id,omitempty"`
	Status       LeaveStatus `db:"status" json:"status"`
	RejectReason *string     `db:"reject_reason" json:"reject_reason,omitempty"`
	ReviewedBy   *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time  `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// DurationDays returns the inclusive length of the leave in days,
// or 0 when either date fails to parse.
func (l *LeaveApplication) DurationDays() int {
	start, err := time.Parse("2006-01-02", l.StartDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse("2006-01-02", l.EndDate)
	if err != nil {
		return 0
	}
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// LeaveDetail joins a leave application with student info for counselor views.
type LeaveDetail struct {
	LeaveApplication
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	ClassName     string `db:"class_name" json:"class_name"`
}
