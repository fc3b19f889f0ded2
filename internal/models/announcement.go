package models

import "time"

// AnnouncementType distinguishes general notices from grade publications.
type AnnouncementType string

const (
	AnnouncementTypeGeneral AnnouncementType = "GENERAL"
	AnnouncementTypeGrades  AnnouncementType = "GRADES"
)

// Announcement is a notice published to a course's enrolled students.
// Grade announcements carry the aggregate statistics of the published
// grade batch in Content.
type Announcement struct {
	ID        string           `db:"id" json:"id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	AuthorID  string           `db:"author_id" json:"author_id"`
	Type      AnnouncementType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Content   string           `db:"content" json:"content"`
	IsPinned  bool             `db:"is_pinned" json:"is_pinned"`
	PinnedTo  *time.Time       `db:"pinned_to" json:"pinned_to,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AnnouncementDetail joins an announcement with course and author info.
type AnnouncementDetail struct {
	Announcement
	CourseName string `db:"course_name" json:"course_name"`
	AuthorName string `db:"author_name" json:"author_name"`
}
