package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/export"
)

type exportGradeReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.GradeDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.GradeDetail, error)
}

type exportBookingReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error)
}

type exportClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type exportScheduleReader interface {
	ListDetailsByStudent(ctx context.Context, studentID string) ([]models.ScheduleDetail, error)
}

// ExportService projects query results into downloadable documents.
type ExportService struct {
	grades     exportGradeReader
	bookings   exportBookingReader
	classrooms exportClassroomReader
	courses    courseReader
	alerts     alertLister
	schedules  exportScheduleReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(grades exportGradeReader, bookings exportBookingReader, classrooms exportClassroomReader, courses courseReader, alerts alertLister, schedules exportScheduleReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		grades:     grades,
		bookings:   bookings,
		classrooms: classrooms,
		courses:    courses,
		alerts:     alerts,
		schedules:  schedules,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// CourseGradesCSV renders a course's grade sheet for one of the teacher's
// courses.
func (s *ExportService) CourseGradesCSV(ctx context.Context, teacherID, courseID string) ([]byte, string, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID != teacherID {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "course belongs to another teacher")
	}
	grades, err := s.grades.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}

	data := export.Dataset{Headers: []string{"Student", "Username", "Score", "Grade Point", "Level", "Exam Type"}}
	for _, g := range grades {
		row := map[string]string{
			"Student":   g.StudentName,
			"Username":  g.StudentUsername,
			"Exam Type": g.ExamType,
		}
		if g.Score != nil {
			row["Score"] = fmt.Sprintf("%.1f", *g.Score)
		}
		if g.GradePoint != nil {
			row["Grade Point"] = fmt.Sprintf("%.1f", *g.GradePoint)
		}
		if g.GradeLevel != nil {
			row["Level"] = *g.GradeLevel
		}
		data.Rows = append(data.Rows, row)
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, fmt.Sprintf("grades_%s.csv", course.Code), nil
}

// AlertsCSV renders the counselor's alert roster.
func (s *ExportService) AlertsCSV(ctx context.Context, counselorID string) ([]byte, string, error) {
	alerts, err := s.alerts.List(ctx, repository.AlertFilter{CounselorID: counselorID})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list alerts")
	}

	data := export.Dataset{Headers: []string{"Student Number", "Student Name", "Class", "Level", "Failed Count", "Failed Courses", "Semester", "Status"}}
	for _, a := range alerts {
		data.Rows = append(data.Rows, map[string]string{
			"Student Number": a.StudentNumber,
			"Student Name":   a.StudentName,
			"Class":          a.ClassName,
			"Level":          string(a.Level),
			"Failed Count":   fmt.Sprintf("%d", a.FailedCount),
			"Failed Courses": strings.Join(a.FailedCourses, "; "),
			"Semester":       fmt.Sprintf("%s-%s", a.AcademicYear, a.Semester),
			"Status":         string(a.Status),
		})
	}
	payload, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, fmt.Sprintf("alerts_%s.csv", time.Now().Format("20060102")), nil
}

// TimetablePDF renders the student's weekly class timetable.
func (s *ExportService) TimetablePDF(ctx context.Context, studentID string) ([]byte, error) {
	slots, err := s.schedules.ListDetailsByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	data := export.Dataset{Headers: []string{"Day", "Time", "Course", "Location", "Teacher"}}
	for _, slot := range slots {
		data.Rows = append(data.Rows, map[string]string{
			"Day":      weekdayName(slot.DayOfWeek),
			"Time":     fmt.Sprintf("%s - %s", slot.StartTime, slot.EndTime),
			"Course":   slot.CourseName,
			"Location": slot.Location,
			"Teacher":  slot.TeacherName,
		})
	}
	payload, err := s.pdf.Render(data, "Weekly Timetable")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weekdayName(day int) string {
	if day < 1 || day > 7 {
		return fmt.Sprintf("Day %d", day)
	}
	return weekdayNames[day-1]
}

// TranscriptPDF renders a student's transcript.
func (s *ExportService) TranscriptPDF(ctx context.Context, studentID string) ([]byte, error) {
	grades, err := s.grades.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	data := export.Dataset{Headers: []string{"Course", "Code", "Credit", "Score", "Level"}}
	for _, g := range grades {
		row := map[string]string{
			"Course": g.CourseName,
			"Code":   g.CourseCode,
			"Credit": fmt.Sprintf("%d", g.Credit),
		}
		if g.Score != nil {
			row["Score"] = fmt.Sprintf("%.1f", *g.Score)
		}
		if g.GradeLevel != nil {
			row["Level"] = *g.GradeLevel
		}
		data.Rows = append(data.Rows, row)
	}
	payload, err := s.pdf.Render(data, "Transcript")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

// BookingVoucherPDF renders a printable voucher for an approved booking.
func (s *ExportService) BookingVoucherPDF(ctx context.Context, bookingID, userID string) ([]byte, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if booking.UserID != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "booking belongs to another user")
	}
	if booking.Status != models.BookingStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidStatus, "voucher available only for approved bookings")
	}
	classroom, err := s.classrooms.FindByID(ctx, booking.ClassroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}

	lines := []string{
		fmt.Sprintf("Booking ID: %s", booking.ID),
		fmt.Sprintf("Room: %s %s", classroom.Building, classroom.RoomNumber),
		fmt.Sprintf("Date: %s", booking.BookingDate),
		fmt.Sprintf("Time: %s - %s", booking.StartTime, booking.EndTime),
		fmt.Sprintf("Attendees: %d", booking.Attendees),
		fmt.Sprintf("Purpose: %s", booking.Purpose),
	}
	payload, err := s.pdf.RenderDocument("Classroom Booking Voucher", lines)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render voucher")
	}
	return payload, nil
}
