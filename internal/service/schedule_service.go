package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/conflict"
	"github.com/campushq/campus-api/internal/models"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/export"
)

type scheduleRepository interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Schedule, error)
	ListDetailsByStudent(ctx context.Context, studentID string) ([]models.ScheduleDetail, error)
	ListDetailsByTeacher(ctx context.Context, teacherID string) ([]models.ScheduleDetail, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) (int64, error)
}

type examRepository interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	ListByCourse(ctx context.Context, courseID string) ([]models.Exam, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.ExamDetail, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// CreateScheduleRequest adds a weekly slot to a course.
type CreateScheduleRequest struct {
	CourseID  string `json:"course_id" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
	Location  string `json:"location"`
}

// CreateExamRequest schedules an exam for a course.
type CreateExamRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	ExamDate     string `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string `json:"end_time" validate:"required,datetime=15:04"`
	Location     string `json:"location"`
	ExamType     string `json:"exam_type" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
}

// ScheduleService manages course timetables and exams.
type ScheduleService struct {
	schedules scheduleRepository
	exams     examRepository
	courses   courseReader
	ical      *export.ICalExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(schedules scheduleRepository, exams examRepository, courses courseReader, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		schedules: schedules,
		exams:     exams,
		courses:   courses,
		ical:      export.NewICalExporter(),
		validator: validate,
		logger:    logger,
	}
}

// CreateSlot adds a weekly slot after checking the interval and the
// teacher's full weekly timetable across all of their courses.
func (s *ScheduleService) CreateSlot(ctx context.Context, teacherID string, req CreateScheduleRequest) (*models.Schedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if !conflict.ValidInterval(req.StartTime, req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "end time must be after start time")
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

	existing, err := s.schedules.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher schedule")
	}
	candidate := models.Schedule{
		CourseID:  req.CourseID,
		ClassID:   course.ClassID,
		TeacherID: course.TeacherID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Location:  req.Location,
	}
	if _, clash := conflict.HasScheduleConflict(candidate, existing); clash {
		return nil, appErrors.Clone(appErrors.ErrScheduleConflict, "slot overlaps another of the teacher's slots")
	}

	if err := s.schedules.Create(ctx, &candidate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return &candidate, nil
}

// DeleteSlot removes a slot from one of the teacher's courses.
func (s *ScheduleService) DeleteSlot(ctx context.Context, id string) error {
	affected, err := s.schedules.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return nil
}

// StudentTimetable returns the student's weekly timetable.
func (s *ScheduleService) StudentTimetable(ctx context.Context, studentID string) ([]models.ScheduleDetail, error) {
	details, err := s.schedules.ListDetailsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return details, nil
}

// TeacherTimetable returns the teacher's weekly timetable.
func (s *ScheduleService) TeacherTimetable(ctx context.Context, teacherID string) ([]models.ScheduleDetail, error) {
	details, err := s.schedules.ListDetailsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return details, nil
}

// CreateExam schedules an exam for one of the teacher's courses.
func (s *ScheduleService) CreateExam(ctx context.Context, teacherID string, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}
	if !conflict.ValidInterval(req.StartTime, req.EndTime) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "end time must be after start time")
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

	exam := &models.Exam{
		CourseID:     req.CourseID,
		ExamDate:     req.ExamDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     req.Location,
		ExamType:     req.ExamType,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}
	if err := s.exams.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}
	return exam, nil
}

// StudentExams returns upcoming exams for the student's selected courses.
func (s *ScheduleService) StudentExams(ctx context.Context, studentID string) ([]models.ExamDetail, error) {
	exams, err := s.exams.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// ExportStudentExams renders the student's exams as an iCal calendar.
func (s *ScheduleService) ExportStudentExams(ctx context.Context, studentID string) ([]byte, error) {
	exams, err := s.exams.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	events := make([]export.ICalEvent, 0, len(exams))
	for _, e := range exams {
		start, err := time.Parse("2006-01-02 15:04", e.ExamDate+" "+e.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse("2006-01-02 15:04", e.ExamDate+" "+e.EndTime)
		if err != nil {
			continue
		}
		events = append(events, export.ICalEvent{
			Summary:     e.CourseName + " " + e.ExamType,
			Start:       start,
			End:         end,
			Location:    e.Location,
			Description: "Exam for " + e.CourseName,
		})
	}
	if len(events) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no exams to export")
	}
	return s.ical.Render(events)
}
