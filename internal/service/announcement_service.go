package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type announcementRepository interface {
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	ListByCourse(ctx context.Context, courseID string) ([]models.AnnouncementDetail, error)
	ListForStudent(ctx context.Context, studentID string, showAll bool) ([]models.AnnouncementDetail, error)
	Delete(ctx context.Context, id, authorID string) (int64, error)
}

// CreateAnnouncementRequest publishes a notice to a course.
type CreateAnnouncementRequest struct {
	CourseID    string `json:"course_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Content     string `json:"content" validate:"required"`
	IsPinned    bool   `json:"is_pinned"`
	PinDuration int    `json:"pin_duration_days" validate:"omitempty,min=1,max=90"`
}

// AnnouncementService manages course notices.
type AnnouncementService struct {
	announcements announcementRepository
	courses       courseReader
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(announcements announcementRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{announcements: announcements, courses: courses, validator: validate, logger: logger}
}

// Create publishes a notice for one of the teacher's courses.
func (s *AnnouncementService) Create(ctx context.Context, teacherID string, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
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

	announcement := &models.Announcement{
		CourseID: req.CourseID,
		AuthorID: teacherID,
		Type:     models.AnnouncementTypeGeneral,
		Title:    req.Title,
		Content:  req.Content,
		IsPinned: req.IsPinned,
	}
	if req.IsPinned && req.PinDuration > 0 {
		until := time.Now().UTC().AddDate(0, 0, req.PinDuration)
		announcement.PinnedTo = &until
	}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return announcement, nil
}

// ListByCourse returns a course's notices, pinned first.
func (s *AnnouncementService) ListByCourse(ctx context.Context, courseID string) ([]models.AnnouncementDetail, error) {
	announcements, err := s.announcements.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// ListForStudent returns notices for the student's selected courses, limited
// to the last 30 days unless showAll is set.
func (s *AnnouncementService) ListForStudent(ctx context.Context, studentID string, showAll bool) ([]models.AnnouncementDetail, error) {
	announcements, err := s.announcements.ListForStudent(ctx, studentID, showAll)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	return announcements, nil
}

// Delete removes a notice owned by the calling teacher.
func (s *AnnouncementService) Delete(ctx context.Context, id, teacherID string) error {
	affected, err := s.announcements.Delete(ctx, id, teacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return nil
}
