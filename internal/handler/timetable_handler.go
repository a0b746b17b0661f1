package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/troop-timetable-api/internal/dto"
	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/service"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
	"github.com/noah-isme/troop-timetable-api/pkg/response"
)

type timetableBuilder interface {
	StartBuild(ctx context.Context, req dto.BuildTimetableRequest) (models.BuildProgress, error)
	Status(ctx context.Context) (models.BuildProgress, error)
}

type timetableExporter interface {
	Generate(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportTimetableResponse, error)
	Download(ctx context.Context, token string) (*service.ExportedFile, error)
}

// TimetableHandler exposes build and export endpoints.
type TimetableHandler struct {
	builds  timetableBuilder
	exports timetableExporter
}

// NewTimetableHandler constructs handler.
func NewTimetableHandler(builds timetableBuilder, exports timetableExporter) *TimetableHandler {
	return &TimetableHandler{builds: builds, exports: exports}
}

// Build godoc
// @Summary Rebuild the timetable
// @Description Deletes every lesson and schedules term_length weeks from the week of start_date in the background.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.BuildTimetableRequest true "Build parameters"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule [post]
func (h *TimetableHandler) Build(c *gin.Context) {
	var req dto.BuildTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	progress, err := h.builds.StartBuild(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.NewBuildStatusResponse(progress))
}

// Status godoc
// @Summary Build status
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *TimetableHandler) Status(c *gin.Context) {
	progress, err := h.builds.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewBuildStatusResponse(progress))
}

// Export godoc
// @Summary Export the timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.ExportTimetableRequest true "Export parameters"
// @Success 201 {object} response.Envelope
// @Router /schedule/exports [post]
func (h *TimetableHandler) Export(c *gin.Context) {
	var req dto.ExportTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.exports.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download an export
// @Tags Timetable
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *TimetableHandler) Download(c *gin.Context) {
	file, err := h.exports.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
