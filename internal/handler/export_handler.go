package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-api/internal/service"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/response"
)

// ExportHandler serves downloadable documents.
type ExportHandler struct {
	exports   *service.ExportService
	schedules *service.ScheduleService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService, schedules *service.ScheduleService) *ExportHandler {
	return &ExportHandler{exports: exports, schedules: schedules}
}

// CourseGradesCSV godoc
// @Summary Download a course's grades as CSV
// @Tags Exports
// @Produce text/csv
// @Param id path string true "Course ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /courses/{id}/grades/export [get]
func (h *ExportHandler) CourseGradesCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, filename, err := h.exports.CourseGradesCSV(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, filename, "text/csv", data)
}

// Transcript godoc
// @Summary Download the caller's transcript as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} file
// @Security BearerAuth
// @Router /grades/me/transcript [get]
func (h *ExportHandler) Transcript(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.exports.TranscriptPDF(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "transcript.pdf", "application/pdf", data)
}

// Timetable godoc
// @Summary Download the caller's weekly timetable as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200 {file} file
// @Security BearerAuth
// @Router /schedules/me/export [get]
func (h *ExportHandler) Timetable(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.exports.TimetablePDF(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "timetable.pdf", "application/pdf", data)
}

// AlertsCSV godoc
// @Summary Download the caller's alert roster as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200 {file} file
// @Security BearerAuth
// @Router /alerts/export [get]
func (h *ExportHandler) AlertsCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, filename, err := h.exports.AlertsCSV(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, filename, "text/csv", data)
}

// BookingVoucher godoc
// @Summary Download an approved booking's voucher as PDF
// @Tags Exports
// @Produce application/pdf
// @Param id path string true "Booking ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /bookings/{id}/voucher [get]
func (h *ExportHandler) BookingVoucher(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.exports.BookingVoucherPDF(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "booking_voucher.pdf", "application/pdf", data)
}

// ExamsICal godoc
// @Summary Download the caller's exam schedule as an iCalendar file
// @Tags Exports
// @Produce text/calendar
// @Success 200 {file} file
// @Security BearerAuth
// @Router /exams/me/export [get]
func (h *ExportHandler) ExamsICal(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	data, err := h.schedules.ExportStudentExams(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "exams.ics", "text/calendar", data)
}
