package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/troop-timetable-api/internal/dto"
	"github.com/noah-isme/troop-timetable-api/internal/models"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
	"github.com/noah-isme/troop-timetable-api/pkg/response"
)

type statisticsProvider interface {
	TeacherLoad(ctx context.Context, query dto.TeacherLoadQuery) ([]models.TeacherLoad, error)
	TroopProgress(ctx context.Context, troopID string) (*models.TroopProgress, error)
	TroopsProgress(ctx context.Context) ([]models.TroopProgress, error)
	CourseLength(ctx context.Context, specialtyID string) ([]models.DisciplineCourseLength, error)
}

// StatisticsHandler exposes load and progress statistics.
type StatisticsHandler struct {
	stats statisticsProvider
}

// NewStatisticsHandler constructs handler.
func NewStatisticsHandler(stats statisticsProvider) *StatisticsHandler {
	return &StatisticsHandler{stats: stats}
}

// TeachersLoad godoc
// @Summary Teacher load
// @Tags Statistics
// @Produce json
// @Param date_from query string false "First date (YYYY-MM-DD)"
// @Param date_to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /statistics/teachers-load [get]
func (h *StatisticsHandler) TeachersLoad(c *gin.Context) {
	var query dto.TeacherLoadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query"))
		return
	}
	loads, err := h.stats.TeacherLoad(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loads, map[string]interface{}{"count": len(loads)})
}

// TroopProgress godoc
// @Summary Troop progress
// @Tags Statistics
// @Produce json
// @Param id path string true "Troop ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /statistics/troops/{id} [get]
func (h *StatisticsHandler) TroopProgress(c *gin.Context) {
	progress, err := h.stats.TroopProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress)
}

// TroopsProgress godoc
// @Summary Progress of every troop
// @Tags Statistics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /statistics/troops [get]
func (h *StatisticsHandler) TroopsProgress(c *gin.Context) {
	progress, err := h.stats.TroopsProgress(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress)
}

// CourseLength godoc
// @Summary Specialty course length
// @Tags Statistics
// @Produce json
// @Param id path string true "Specialty ID"
// @Success 200 {object} response.Envelope
// @Router /specialties/{id}/course-length [get]
func (h *StatisticsHandler) CourseLength(c *gin.Context) {
	lengths, err := h.stats.CourseLength(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"course_length": lengths})
}
