package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// AnnouncementRepository handles persistence of announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

const announcementColumns = `id, course_id, author_id, type, title, content, is_pinned, pinned_to, created_at`

// FindByID returns an announcement by its ID.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	const query = `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create persists a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	if announcement.Type == "" {
		announcement.Type = models.AnnouncementTypeGeneral
	}
	const query = `INSERT INTO announcements (id, course_id, author_id, type, title, content, is_pinned, pinned_to)
        VALUES (:id, :course_id, :author_id, :type, :title, :content, :is_pinned, :pinned_to)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// ListByCourse returns a course's announcements, pinned first then newest.
func (r *AnnouncementRepository) ListByCourse(ctx context.Context, courseID string) ([]models.AnnouncementDetail, error) {
	const query = `SELECT a.id, a.course_id, a.author_id, a.type, a.title, a.content, a.is_pinned, a.pinned_to, a.created_at,
        c.name AS course_name, u.real_name AS author_name
        FROM announcements a
        JOIN courses c ON c.id = a.course_id
        LEFT JOIN users u ON u.id = a.author_id
        WHERE a.course_id = $1
        ORDER BY a.is_pinned DESC, a.created_at DESC`
	var announcements []models.AnnouncementDetail
	if err := r.db.SelectContext(ctx, &announcements, query, courseID); err != nil {
		return nil, fmt.Errorf("list course announcements: %w", err)
	}
	return announcements, nil
}

// ListForStudent returns announcements for every course the student has
// selected, pinned first then newest. Unless showAll is set the feed is
// limited to the last 30 days.
func (r *AnnouncementRepository) ListForStudent(ctx context.Context, studentID string, showAll bool) ([]models.AnnouncementDetail, error) {
	query := `SELECT a.id, a.course_id, a.author_id, a.type, a.title, a.content, a.is_pinned, a.pinned_to, a.created_at,
        c.name AS course_name, u.real_name AS author_name
        FROM announcements a
        JOIN courses c ON c.id = a.course_id
        JOIN selected_courses sc ON sc.course_id = a.course_id
        LEFT JOIN users u ON u.id = a.author_id
        WHERE sc.student_id = $1`
	if !showAll {
		query += ` AND a.created_at >= NOW() - INTERVAL '30 days'`
	}
	query += ` ORDER BY a.is_pinned DESC, a.created_at DESC`
	var announcements []models.AnnouncementDetail
	if err := r.db.SelectContext(ctx, &announcements, query, studentID); err != nil {
		return nil, fmt.Errorf("list student announcements: %w", err)
	}
	return announcements, nil
}

// Delete removes an announcement owned by the author, returning the number
// of affected rows.
func (r *AnnouncementRepository) Delete(ctx context.Context, id, authorID string) (int64, error) {
	const query = `DELETE FROM announcements WHERE id = $1 AND author_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, authorID)
	if err != nil {
		return 0, fmt.Errorf("delete announcement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete announcement rows affected: %w", err)
	}
	return affected, nil
}
