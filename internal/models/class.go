package models

import "time"

// Class groups students under an optional counselor.
type Class struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	CounselorID *string   `db:"counselor_id" json:"counselor_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
