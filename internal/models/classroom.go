package models

import "time"

// ClassroomStatus represents classroom availability.
type ClassroomStatus string

const (
	ClassroomStatusAvailable   ClassroomStatus = "AVAILABLE"
	ClassroomStatusMaintenance ClassroomStatus = "MAINTENANCE"
)

// Classroom is a bookable room.
type Classroom struct {
	ID         string          `db:"id" json:"id"`
	RoomNumber string          `db:"room_number" json:"room_number"`
	Building   string          `db:"building" json:"building"`
	Capacity   int             `db:"capacity" json:"capacity"`
	Equipment  string          `db:"equipment" json:"equipment"`
	Status     ClassroomStatus `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
