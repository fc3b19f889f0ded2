package models

import "time"

// CourseMaterial is a file a teacher uploaded for a course.
type CourseMaterial struct {
	ID           string    `db:"id" json:"id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	UploaderID   string    `db:"uploader_id" json:"uploader_id"`
	Title        string    `db:"title" json:"title"`
	OriginalName string    `db:"original_name" json:"original_name"`
	StoredName   string    `db:"stored_name" json:"-"`
	ContentType   string    `db:"content_type" json:"content_type"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	ViewCount     int       `db:"view_count" json:"view_count"`
	DownloadCount int       `db:"download_count" json:"download_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// MaterialDetail joins a material with course and uploader info.
type MaterialDetail struct {
	CourseMaterial
	CourseName   string `db:"course_name" json:"course_name"`
	UploaderName string `db:"uploader_name" json:"uploader_name"`
}
