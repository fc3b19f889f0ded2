package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-api/internal/models"
)

// MaterialRepository handles persistence of course materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs the repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

const materialColumns = `id, course_id, uploader_id, title, original_name, stored_name, content_type,
        size_bytes, view_count, download_count, created_at`

// FindByID returns a material by its ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.CourseMaterial, error) {
	const query = `SELECT ` + materialColumns + ` FROM course_materials WHERE id = $1`
	var material models.CourseMaterial
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create persists a new material record.
func (r *MaterialRepository) Create(ctx context.Context, material *models.CourseMaterial) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	const query = `INSERT INTO course_materials (id, course_id, uploader_id, title, original_name, stored_name,
        content_type, size_bytes)
        VALUES (:id, :course_id, :uploader_id, :title, :original_name, :stored_name,
        :content_type, :size_bytes)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}

// ListByCourse returns a course's materials, newest first.
func (r *MaterialRepository) ListByCourse(ctx context.Context, courseID string) ([]models.MaterialDetail, error) {
	const query = `SELECT m.id, m.course_id, m.uploader_id, m.title, m.original_name, m.stored_name, m.content_type,
        m.size_bytes, m.view_count, m.download_count, m.created_at,
        c.name AS course_name, u.real_name AS uploader_name
        FROM course_materials m
        JOIN courses c ON c.id = m.course_id
        LEFT JOIN users u ON u.id = m.uploader_id
        WHERE m.course_id = $1
        ORDER BY m.created_at DESC`
	var materials []models.MaterialDetail
	if err := r.db.SelectContext(ctx, &materials, query, courseID); err != nil {
		return nil, fmt.Errorf("list course materials: %w", err)
	}
	return materials, nil
}

// IncrementViews bumps the view counter.
func (r *MaterialRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE course_materials SET view_count = view_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment material views: %w", err)
	}
	return nil
}

// IncrementDownloads bumps the download counter.
func (r *MaterialRepository) IncrementDownloads(ctx context.Context, id string) error {
	const query = `UPDATE course_materials SET download_count = download_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment material downloads: %w", err)
	}
	return nil
}

// Delete removes a material owned by the uploader, returning the number of
// affected rows.
func (r *MaterialRepository) Delete(ctx context.Context, id, uploaderID string) (int64, error) {
	const query = `DELETE FROM course_materials WHERE id = $1 AND uploader_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, uploaderID)
	if err != nil {
		return 0, fmt.Errorf("delete material: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete material rows affected: %w", err)
	}
	return affected, nil
}
