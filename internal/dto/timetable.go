package dto

import (
	"time"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// BuildTimetableRequest captures POST /schedule payload.
type BuildTimetableRequest struct {
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	TermLength int    `json:"term_length" validate:"required,min=1"`
}

// BuildStatusResponse is the polling view of the current build.
type BuildStatusResponse struct {
	models.BuildProgress
	Progress float64 `json:"progress"`
}

// NewBuildStatusResponse derives the progress ratio from stored counters.
func NewBuildStatusResponse(p models.BuildProgress) BuildStatusResponse {
	return BuildStatusResponse{BuildProgress: p, Progress: p.Ratio()}
}

// ExportTimetableRequest captures POST /schedule/exports payload.
type ExportTimetableRequest struct {
	Format   string `json:"format" validate:"required,oneof=xlsx csv pdf"`
	TroopID  string `json:"troop_id,omitempty"`
	DateFrom string `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ExportTimetableResponse points at the stored export.
type ExportTimetableResponse struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TeacherLoadQuery bounds the teacher load statistics window.
type TeacherLoadQuery struct {
	DateFrom string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to" validate:"omitempty,datetime=2006-01-02"`
}

// ParseDate parses an optional wire date; an empty value yields nil.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
