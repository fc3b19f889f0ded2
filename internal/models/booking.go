package models

import "time"

// BookingStatus is the lifecycle state of a classroom booking.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "PENDING"
	BookingStatusApproved BookingStatus = "APPROVED"
	BookingStatusRejected BookingStatus = "REJECTED"
)

// ClassroomBooking reserves a classroom interval on a given date.
// Times are zero-padded "HH:MM" strings; the interval is half-open,
// so a booking ending at 10:00 does not collide with one starting at 10:00.
type ClassroomBooking struct {
	ID           string        `db:"id" json:"id"`
	ClassroomID  string        `db:"classroom_id" json:"classroom_id"`
	UserID       string        `db:"user_id" json:"user_id"`
	BookingDate  string        `db:"booking_date" json:"booking_date"`
	StartTime    string        `db:"start_time" json:"start_time"`
	EndTime      string        `db:"end_time" json:"end_time"`
	Purpose      string        `db:"purpose" json:"purpose"`
	Attendees    int           `db:"attendees" json:"attendees"`
	Status       BookingStatus `db:"status" json:"status"`
	RejectReason *string       `db:"reject_reason" json:"reject_reason,omitempty"`
	ReviewedBy   *string       `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// BookingDetail joins a booking with classroom and requester info for listings.
type BookingDetail struct {
	ClassroomBooking
	RoomNumber    string `db:"room_number" json:"room_number"`
	Building      string `db:"building" json:"building"`
	RequesterName string `db:"requester_name" json:"requester_name"`
}
