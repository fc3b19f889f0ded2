package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-api/internal/service"
	appErrors "github.com/campushq/campus-api/pkg/errors"
	"github.com/campushq/campus-api/pkg/response"
)

// MaterialHandler exposes course material endpoints.
type MaterialHandler struct {
	materials *service.MaterialService
}

// NewMaterialHandler constructs MaterialHandler.
func NewMaterialHandler(materials *service.MaterialService) *MaterialHandler {
	return &MaterialHandler{materials: materials}
}

// Upload godoc
// @Summary Upload a course material file
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param courseId formData string true "Course ID"
// @Param title formData string true "Material title"
// @Param file formData file true "File to upload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /materials [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable file"))
		return
	}
	defer file.Close()

	req := service.UploadMaterialRequest{
		CourseID:     c.PostForm("courseId"),
		Title:        c.PostForm("title"),
		OriginalName: fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		Size:         fileHeader.Size,
	}
	material, err := h.materials.Upload(c.Request.Context(), claims.UserID, req, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// ListByCourse godoc
// @Summary List a course's materials
// @Tags Materials
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/materials [get]
func (h *MaterialHandler) ListByCourse(c *gin.Context) {
	materials, err := h.materials.ListByCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, nil)
}

// Download godoc
// @Summary Download a material file
// @Tags Materials
// @Produce application/octet-stream
// @Param id path string true "Material ID"
// @Success 200 {file} file
// @Security BearerAuth
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	material, reader, err := h.materials.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer reader.Close()

	contentType := material.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extraHeaders := map[string]string{
		"Content-Disposition": "attachment; filename=\"" + material.OriginalName + "\"",
	}
	c.DataFromReader(http.StatusOK, material.SizeBytes, contentType, reader, extraHeaders)
}

// View godoc
// @Summary Count a material view
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 204
// @Security BearerAuth
// @Router /materials/{id}/view [post]
func (h *MaterialHandler) View(c *gin.Context) {
	if err := h.materials.View(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete one of the caller's materials
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 204
// @Security BearerAuth
// @Router /materials/{id} [delete]
func (h *MaterialHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.materials.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
