package models

import "time"

// Teacher represents an instructor with a work hours ceiling used for load balancing.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	MilitaryRank   string    `db:"military_rank" json:"military_rank"`
	WorkHoursLimit int       `db:"work_hours_limit" json:"work_hours_limit"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName renders the teacher with rank, as printed on exports.
func (t Teacher) DisplayName() string {
	if t.MilitaryRank == "" {
		return t.Name
	}
	return t.MilitaryRank + " " + t.Name
}
