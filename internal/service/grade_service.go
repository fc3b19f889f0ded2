package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type gradeRepository interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

type gradeCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	MarkGradesSaved(ctx context.Context, id string) error
	ResetGradesSaved(ctx context.Context, id string) error
	MarkGradesSubmitted(ctx context.Context, id string, at time.Time) error
}

type selectionChecker interface {
	Exists(ctx context.Context, studentID, courseID string) (bool, error)
}

type announcementWriter interface {
	Create(ctx context.Context, announcement *models.Announcement) error
}

// UpsertGradeRequest records or rewrites one student's score.
type UpsertGradeRequest struct {
	StudentID    string     `json:"student_id" validate:"required"`
	Score        *float64   `json:"score" validate:"omitempty,min=0,max=100"`
	ExamType     string     `json:"exam_type" validate:"required"`
	ExamDate     *time.Time `json:"exam_date"`
	AcademicYear string     `json:"academic_year" validate:"required"`
	Semester     string     `json:"semester" validate:"required"`
	Comments     string     `json:"comments"`
}

// BatchGradeEntry is one student's row in a bulk grade write.
type BatchGradeEntry struct {
	StudentID string   `json:"student_id"`
	Score     *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Comments  string   `json:"comments"`
}

// BatchUpsertRequest writes scores for many students in one call. ExamType
// and ExamDate apply to every entry.
type BatchUpsertRequest struct {
	Grades       []BatchGradeEntry `json:"grades" validate:"required,min=1,dive"`
	ExamType     string            `json:"exam_type" validate:"required"`
	ExamDate     *time.Time        `json:"exam_date"`
	AcademicYear string            `json:"academic_year" validate:"required"`
	Semester     string            `json:"semester" validate:"required"`
}

// BatchUpsertResult counts how many entries of a bulk write landed.
type BatchUpsertResult struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// GradeService orchestrates grade recording and publication.
type GradeService struct {
	grades        gradeRepository
	courses       gradeCourseRepository
	selections    selectionChecker
	announcements announcementWriter
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeRepository, courses gradeCourseRepository, selections selectionChecker, announcements announcementWriter, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{
		grades:        grades,
		courses:       courses,
		selections:    selections,
		announcements: announcements,
		validator:     validate,
		logger:        logger,
	}
}

// Upsert creates or rewrites the single grade row for (student, course),
// recomputing the grade point and letter whenever a score is present. The
// caller must own the course.
func (s *GradeService) Upsert(ctx context.Context, teacherID, courseID string, req UpsertGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	course, err := s.loadOwnedCourse(ctx, teacherID, courseID)
	if err != nil {
		return nil, err
	}
	grade, err := s.writeGrade(ctx, course, req)
	if err != nil {
		return nil, err
	}
	if err := s.courses.MarkGradesSaved(ctx, courseID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag saved grades")
	}
	return grade, nil
}

// BatchUpsert writes scores for many students of the course in one pass.
// Entries missing a student or a score are counted as failures without
// aborting the rest; the exam type and date are shared by every entry.
func (s *GradeService) BatchUpsert(ctx context.Context, teacherID, courseID string, req BatchUpsertRequest) (*BatchUpsertResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid batch grade payload")
	}
	course, err := s.loadOwnedCourse(ctx, teacherID, courseID)
	if err != nil {
		return nil, err
	}

	result := &BatchUpsertResult{}
	for _, entry := range req.Grades {
		if entry.StudentID == "" || entry.Score == nil {
			result.FailureCount++
			continue
		}
		_, err := s.writeGrade(ctx, course, UpsertGradeRequest{
			StudentID:    entry.StudentID,
			Score:        entry.Score,
			ExamType:     req.ExamType,
			ExamDate:     req.ExamDate,
			AcademicYear: req.AcademicYear,
			Semester:     req.Semester,
			Comments:     entry.Comments,
		})
		if err != nil {
			s.logger.Warn("batch grade entry rejected",
				zap.String("course_id", courseID),
				zap.String("student_id", entry.StudentID),
				zap.Error(err))
			result.FailureCount++
			continue
		}
		result.SuccessCount++
	}

	if result.SuccessCount > 0 {
		if err := s.courses.MarkGradesSaved(ctx, courseID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag saved grades")
		}
	}
	return result, nil
}

// SaveGrades flags the course's grading round as saved. At least one grade
// row must exist.
func (s *GradeService) SaveGrades(ctx context.Context, teacherID, courseID string) error {
	if _, err := s.loadOwnedCourse(ctx, teacherID, courseID); err != nil {
		return err
	}
	count, err := s.grades.CountByCourse(ctx, courseID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count grades")
	}
	if count == 0 {
		return appErrors.Clone(appErrors.ErrNoGradesSaved, "no grades saved for course")
	}
	if err := s.courses.MarkGradesSaved(ctx, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to flag saved grades")
	}
	return nil
}

// ResetGradesStatus clears the saved-grades flag so the teacher can redo
// the grading round before submission.
func (s *GradeService) ResetGradesStatus(ctx context.Context, teacherID, courseID string) error {
	if _, err := s.loadOwnedCourse(ctx, teacherID, courseID); err != nil {
		return err
	}
	if err := s.courses.ResetGradesSaved(ctx, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset saved grades")
	}
	return nil
}

func (s *GradeService) writeGrade(ctx context.Context, course *models.Course, req UpsertGradeRequest) (*models.Grade, error) {
	enrolled, err := s.selections.Exists(ctx, req.StudentID, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "student not enrolled in course")
	}

	var point *float64
	var level *string
	if req.Score != nil {
		p := models.GradePoint(*req.Score)
		l := models.GradeLevel(*req.Score)
		point = &p
		level = &l
	}

	existing, err := s.grades.FindByStudentAndCourse(ctx, req.StudentID, course.ID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	if existing != nil {
		existing.Score = req.Score
		existing.GradePoint = point
		existing.GradeLevel = level
		existing.ExamType = req.ExamType
		existing.ExamDate = req.ExamDate
		existing.Comments = req.Comments
		if err := s.grades.Update(ctx, existing); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
		}
		return existing, nil
	}

	grade := &models.Grade{
		StudentID:    req.StudentID,
		CourseID:     course.ID,
		TeacherID:    course.TeacherID,
		Score:        req.Score,
		GradePoint:   point,
		GradeLevel:   level,
		ExamType:     req.ExamType,
		ExamDate:     req.ExamDate,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
		Comments:     req.Comments,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}
	return grade, nil
}

// Submit publishes a course's grades: it aggregates statistics, emits a
// grade announcement to the enrolled students and stamps the course as
// submitted. Re-submission is allowed and publishes a fresh announcement
// superseding the previous one.
func (s *GradeService) Submit(ctx context.Context, teacherID, courseID string) (*models.GradeStatistics, error) {
	course, err := s.loadOwnedCourse(ctx, teacherID, courseID)
	if err != nil {
		return nil, err
	}

	count, err := s.grades.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count grades")
	}
	if count == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoGradesSaved, "no grades saved for course")
	}

	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	stats := computeStatistics(grades)

	now := time.Now().UTC()
	announcement := &models.Announcement{
		CourseID: courseID,
		AuthorID: course.TeacherID,
		Type:     models.AnnouncementTypeGrades,
		Title:    fmt.Sprintf("Grades published: %s", course.Name),
		Content: fmt.Sprintf("Grades for %s are available. Students graded: %d, average score: %.1f, pass: %d, fail: %d, pass rate: %.1f%%.",
			course.Name, stats.TotalStudents, stats.AverageScore, stats.PassCount, stats.FailCount, stats.PassRate),
	}
	if err := s.announcements.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish grade announcement")
	}
	if err := s.courses.MarkGradesSubmitted(ctx, courseID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark grades submitted")
	}
	s.logger.Info("course grades submitted",
		zap.String("course_id", courseID),
		zap.Int("students", stats.TotalStudents))
	return &stats, nil
}

// ListByCourse returns a course's grades with their statistics.
func (s *GradeService) ListByCourse(ctx context.Context, teacherID, courseID string) ([]models.GradeDetail, *models.GradeStatistics, error) {
	if _, err := s.loadOwnedCourse(ctx, teacherID, courseID); err != nil {
		return nil, nil, err
	}
	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	stats := computeStatistics(grades)
	return grades, &stats, nil
}

// StudentSummary returns the student's transcript with totals and GPA.
func (s *GradeService) StudentSummary(ctx context.Context, studentID string) (*models.StudentGradeSummary, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	summary := &models.StudentGradeSummary{Grades: grades}
	var weighted float64
	for _, g := range grades {
		if g.Score == nil || g.GradePoint == nil {
			continue
		}
		summary.CourseCount++
		summary.TotalCredits += g.Credit
		weighted += *g.GradePoint * float64(g.Credit)
	}
	if summary.TotalCredits > 0 {
		summary.AverageGPA = weighted / float64(summary.TotalCredits)
	}
	return summary, nil
}

func (s *GradeService) loadOwnedCourse(ctx context.Context, teacherID, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	return course, nil
}

func computeStatistics(grades []models.GradeDetail) models.GradeStatistics {
	stats := models.GradeStatistics{Distribution: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}}
	var sum float64
	for _, g := range grades {
		if g.Score == nil {
			continue
		}
		score := *g.Score
		if stats.TotalStudents == 0 {
			stats.MaxScore = score
			stats.MinScore = score
		}
		stats.TotalStudents++
		sum += score
		if score > stats.MaxScore {
			stats.MaxScore = score
		}
		if score < stats.MinScore {
			stats.MinScore = score
		}
		if score >= models.PassingScore {
			stats.PassCount++
		} else {
			stats.FailCount++
		}
		stats.Distribution[models.GradeLevel(score)]++
	}
	if stats.TotalStudents > 0 {
		stats.AverageScore = sum / float64(stats.TotalStudents)
		stats.PassRate = float64(stats.PassCount) / float64(stats.TotalStudents) * 100
	}
	return stats
}
