package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inedit/inedit-service/internal/services"
	"github.com/inedit/inedit-service/internal/utils"
	"github.com/inedit/inedit-service/internal/validator"
)

type SourceHandler struct {
	BaseHandler
	service services.SourceService
}

func NewSourceHandler(service services.SourceService, logger utils.Logger) *SourceHandler {
	return &SourceHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ListSources lists the caller's sources in a banca
// @Summary List sources
// @Tags sources
// @Produce json
// @Param id path string true "Banca ID"
// @Success 200 {array} models.Source
// @Router /bancas/{id}/sources [get]
func (h *SourceHandler) ListSources(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	sources, err := h.service.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sources)
}

// CreateSource adds a text or url source
// @Summary Create a source
// @Tags sources
// @Accept json
// @Produce json
// @Param id path string true "Banca ID"
// @Param request body services.SourceCreateRequest true "Source"
// @Success 201 {object} models.Source
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 404 {object} ErrorResponse "Banca not found"
// @Router /bancas/{id}/sources [post]
func (h *SourceHandler) CreateSource(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req services.SourceCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	source, err := h.service.Create(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, source)
}

// UploadSource stores a file source sent as multipart form (fields: file, title)
// @Summary Upload a file source
// @Tags sources
// @Accept mpfd
// @Produce json
// @Param id path string true "Banca ID"
// @Param file formData file true "File"
// @Param title formData string false "Title, defaults to the file name"
// @Success 201 {object} models.Source
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 503 {object} ErrorResponse "Storage not configured"
// @Router /bancas/{id}/sources/upload [post]
func (h *SourceHandler) UploadSource(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, validator.MaxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Message: "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file",
			Details: err.Error(),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		h.LogError(c, err, "Failed to open uploaded file")
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Unreadable file"})
		return
	}
	defer file.Close()

	title := c.PostForm("title")
	if title == "" {
		title = header.Filename
	}

	source, err := h.service.Upload(c.Request.Context(), userID, c.Param("id"), &services.FileUpload{
		Title:    title,
		FileName: header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
		Reader:   file,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, source)
}

// DeleteSource removes one of the caller's sources
// @Summary Delete a source
// @Tags sources
// @Param id path string true "Banca ID"
// @Param sourceId path int true "Source ID"
// @Success 204
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /bancas/{id}/sources/{sourceId} [delete]
func (h *SourceHandler) DeleteSource(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	sourceID, ok := h.uintParam(c, "sourceId", "source ID")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, c.Param("id"), sourceID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
