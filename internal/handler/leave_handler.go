package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/service"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/response"
)

// LeaveHandler exposes leave application endpoints.
type LeaveHandler struct {
	leaves *service.LeaveService
}

// NewLeaveHandler constructs LeaveHandler.
func NewLeaveHandler(leaves *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaves: leaves}
}

// Apply godoc
// @Summary Submit a leave application, optionally with an attachment
// @Tags Leaves
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param payload body service.ApplyLeaveRequest true "Leave payload"
// @Param attachment formData file false "Supporting document"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /leaves [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ApplyLeaveRequest
	var attachment io.Reader
	var attachmentName string
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		req = service.ApplyLeaveRequest{
			LeaveType: strings.ToUpper(c.PostForm("leave_type")),
			StartDate: c.PostForm("start_date"),
			EndDate:   c.PostForm("end_date"),
			Reason:    c.PostForm("reason"),
		}
		if fileHeader, err := c.FormFile("attachment"); err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable attachment"))
				return
			}
			defer file.Close()
			attachment = file
			attachmentName = fileHeader.Filename
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	leave, err := h.leaves.Apply(c.Request.Context(), claims.UserID, req, attachment, attachmentName)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// Mine godoc
// @Summary List the caller's leave applications
// @Tags Leaves
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leaves/me [get]
func (h *LeaveHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	leaves, err := h.leaves.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// ListForReview godoc
// @Summary List leave applications from the counselor's classes
// @Tags Leaves
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /leaves [get]
func (h *LeaveHandler) ListForReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	status := models.LeaveStatus(strings.ToUpper(c.Query("status")))
	leaves, err := h.leaves.ListForCounselor(c.Request.Context(), claims.UserID, status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// Review godoc
// @Summary Approve or reject a pending leave application
// @Tags Leaves
// @Accept json
// @Produce json
// @Param id path string true "Leave ID"
// @Param payload body service.ReviewLeaveRequest true "Review payload"
// @Success 204
// @Security BearerAuth
// @Router /leaves/{id}/review [put]
func (h *LeaveHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.ReviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.leaves.Review(c.Request.Context(), c.Param("id"), claims.UserID, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
