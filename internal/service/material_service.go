package service

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/pkg/config"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/storage"
)

type materialRepository interface {
	FindByID(ctx context.Context, id string) (*models.CourseMaterial, error)
	Create(ctx context.Context, material *models.CourseMaterial) error
	ListByCourse(ctx context.Context, courseID string) ([]models.MaterialDetail, error)
	IncrementViews(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, id string) error
	Delete(ctx context.Context, id, uploaderID string) (int64, error)
}

// UploadMaterialRequest carries the metadata of an uploaded file.
type UploadMaterialRequest struct {
	CourseID     string `validate:"required"`
	Title        string `validate:"required"`
	OriginalName string `validate:"required"`
	ContentType  string
	Size         int64 `validate:"required,min=1"`
}

// MaterialService stores and serves course files.
type MaterialService struct {
	materials materialRepository
	courses   courseReader
	files     *storage.LocalStorage
	uploads   config.UploadsConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(materials materialRepository, courses courseReader, files *storage.LocalStorage, uploads config.UploadsConfig, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{
		materials: materials,
		courses:   courses,
		files:     files,
		uploads:   uploads,
		validator: validate,
		logger:    logger,
	}
}

// Upload stores the file bytes and records the material for one of the
// teacher's courses. Size and extension limits come from configuration.
func (s *MaterialService) Upload(ctx context.Context, teacherID string, req UploadMaterialRequest, body io.Reader) (*models.CourseMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if s.uploads.MaxFileSizeBytes > 0 && req.Size > s.uploads.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds the maximum allowed size")
	}
	if !s.extensionAllowed(req.OriginalName) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}

	storedName := storage.GenerateName(teacherID, req.OriginalName)
	stored, written, err := s.files.SaveStream("materials", storedName, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	material := &models.CourseMaterial{
		CourseID:     req.CourseID,
		UploaderID:   teacherID,
		Title:        req.Title,
		OriginalName: req.OriginalName,
		StoredName:   stored,
		ContentType:  req.ContentType,
		SizeBytes:    written,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		if removeErr := s.files.Delete(stored); removeErr != nil {
			s.logger.Warn("orphaned upload left on disk", zap.String("file", stored), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// ListByCourse returns a course's materials and bumps nothing.
func (s *MaterialService) ListByCourse(ctx context.Context, courseID string) ([]models.MaterialDetail, error) {
	materials, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Download opens the stored file, bumps the download counter and returns
// the metadata with the reader. The caller closes the reader.
func (s *MaterialService) Download(ctx context.Context, id string) (*models.CourseMaterial, io.ReadCloser, error) {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	file, err := s.files.Open(material.StoredName)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	if err := s.materials.IncrementDownloads(ctx, id); err != nil {
		s.logger.Warn("download counter not updated", zap.String("material_id", id), zap.Error(err))
	}
	return material, file, nil
}

// View bumps the view counter.
func (s *MaterialService) View(ctx context.Context, id string) error {
	if err := s.materials.IncrementViews(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record view")
	}
	return nil
}

// Delete removes the material record and its stored file.
func (s *MaterialService) Delete(ctx context.Context, id, teacherID string) error {
	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}
	affected, err := s.materials.Delete(ctx, id, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrForbidden, "material belongs to another teacher")
	}
	if err := s.files.Delete(material.StoredName); err != nil {
		s.logger.Warn("stored file not removed", zap.String("file", material.StoredName), zap.Error(err))
	}
	return nil
}

func (s *MaterialService) extensionAllowed(name string) bool {
	if len(s.uploads.AllowedExtensions) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, allowed := range s.uploads.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimPrefix(allowed, ".")) {
			return true
		}
	}
	return false
}
