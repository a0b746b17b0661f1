package models

import "time"

// BuildStatus captures the lifecycle of a timetable build job.
type BuildStatus string

const (
	BuildStatusIdle       BuildStatus = "IDLE"
	BuildStatusQueued     BuildStatus = "QUEUED"
	BuildStatusProcessing BuildStatus = "BUILD_PROCESSING"
	BuildStatusFinished   BuildStatus = "FINISHED"
	BuildStatusFailed     BuildStatus = "FAILED"
)

// Active reports whether a build currently owns the lesson set.
func (s BuildStatus) Active() bool {
	return s == BuildStatusQueued || s == BuildStatusProcessing
}

// BuildProgress is the polling view of a build: hours committed so far
// against the total course load of every troop.
type BuildProgress struct {
	JobID        string      `json:"job_id,omitempty"`
	Status       BuildStatus `json:"status"`
	CurrentLoad  int         `json:"current_term_load"`
	TotalLoad    int         `json:"total_term_load"`
	StartDate    string      `json:"start_date,omitempty"`
	TermLength   int         `json:"term_length,omitempty"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	FinishedAt   *time.Time  `json:"finished_at,omitempty"`
	ErrorMessage string      `json:"error,omitempty"`
}

// Ratio returns CurrentLoad / TotalLoad, or 0 when the total is unknown.
func (p BuildProgress) Ratio() float64 {
	if p.TotalLoad <= 0 {
		return 0
	}
	return float64(p.CurrentLoad) / float64(p.TotalLoad)
}
