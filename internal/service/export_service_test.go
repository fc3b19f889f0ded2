package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/repository"
	appErrors "github.com/campushq/campus-api/pkg/errors"
)

type stubAlertLister struct {
	alerts []models.AlertDetail
	filter repository.AlertFilter
}

func (s *stubAlertLister) List(ctx context.Context, filter repository.AlertFilter) ([]models.AlertDetail, error) {
	s.filter = filter
	return s.alerts, nil
}

type stubTimetableReader struct {
	slots []models.ScheduleDetail
}

func (s *stubTimetableReader) ListDetailsByStudent(ctx context.Context, studentID string) ([]models.ScheduleDetail, error) {
	return s.slots, nil
}

type stubBookingReader struct {
	booking *models.ClassroomBooking
}

func (s *stubBookingReader) FindByID(ctx context.Context, id string) (*models.ClassroomBooking, error) {
	return s.booking, nil
}

type stubClassroomReader struct {
	classroom *models.Classroom
}

func (s *stubClassroomReader) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	return s.classroom, nil
}

func TestAlertsCSVRendersCounselorRoster(t *testing.T) {
	alerts := &stubAlertLister{alerts: []models.AlertDetail{
		{
			AcademicAlert: models.AcademicAlert{
				AcademicYear:  "2025-2026",
				Semester:      "1",
				Level:         models.AlertLevelFirst,
				FailedCount:   3,
				FailedCourses: models.FailedCourses{"Calculus", "Physics", "Chemistry"},
				Status:        models.AlertStatusActive,
			},
			StudentName:   "Alice Zhang",
			StudentNumber: "S20250001",
			ClassName:     "CS-1A",
		},
	}}
	svc := NewExportService(nil, nil, nil, nil, alerts, nil, zap.NewNop())

	payload, filename, err := svc.AlertsCSV(context.Background(), "coun-1")
	require.NoError(t, err)
	assert.Equal(t, "coun-1", alerts.filter.CounselorID)
	assert.True(t, strings.HasPrefix(filename, "alerts_"))
	assert.True(t, strings.HasSuffix(filename, ".csv"))

	out := string(payload)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Student Number,Student Name,Class,Level,Failed Count,Failed Courses,Semester,Status", lines[0])
	assert.Contains(t, lines[1], "S20250001")
	assert.Contains(t, lines[1], "Calculus; Physics; Chemistry")
	assert.Contains(t, lines[1], "2025-2026-1")
}

func TestTimetablePDFRendersWeeklySlots(t *testing.T) {
	schedules := &stubTimetableReader{slots: []models.ScheduleDetail{
		{
			Schedule:    models.Schedule{DayOfWeek: 1, StartTime: "08:00", EndTime: "09:40", Location: "A-101"},
			CourseName:  "Calculus",
			TeacherName: "Dr. Li",
		},
		{
			Schedule:    models.Schedule{DayOfWeek: 3, StartTime: "14:00", EndTime: "15:40", Location: "B-203"},
			CourseName:  "Physics",
			TeacherName: "Dr. Wu",
		},
	}}
	svc := NewExportService(nil, nil, nil, nil, nil, schedules, zap.NewNop())

	payload, err := svc.TimetablePDF(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestBookingVoucherRequiresApprovedBooking(t *testing.T) {
	bookings := &stubBookingReader{booking: &models.ClassroomBooking{
		ID:     "bk-1",
		UserID: "user-1",
		Status: models.BookingStatusPending,
	}}
	classrooms := &stubClassroomReader{classroom: &models.Classroom{Building: "A", RoomNumber: "101"}}
	svc := NewExportService(nil, bookings, classrooms, nil, nil, nil, zap.NewNop())

	_, err := svc.BookingVoucherPDF(context.Background(), "bk-1", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestWeekdayNameBounds(t *testing.T) {
	assert.Equal(t, "Monday", weekdayName(1))
	assert.Equal(t, "Sunday", weekdayName(7))
	assert.Equal(t, "Day 0", weekdayName(0))
}
