package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-api/internal/service"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/response"
)

// EnrollmentHandler exposes course selection endpoints for students.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Select godoc
// @Summary Select a course
// @Tags Enrollment
// @Accept json
// @Produce json
// @Param payload body service.SelectCourseRequest true "Selection payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /selections [post]
func (h *EnrollmentHandler) Select(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SelectCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	selection, err := h.enrollments.SelectCourse(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, selection)
}

// Drop godoc
// @Summary Drop a selected course
// @Tags Enrollment
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 204
// @Security BearerAuth
// @Router /selections/{courseId} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.enrollments.DropCourse(c.Request.Context(), claims.UserID, c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// List godoc
// @Summary List the caller's selections
// @Tags Enrollment
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /selections [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	selections, totalCredits, err := h.enrollments.ListSelections(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"selections":    selections,
		"total_credits": totalCredits,
	}, nil)
}
