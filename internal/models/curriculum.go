package models

import (
	"time"

	"github.com/lib/pq"
)

// Specialty is a curriculum track followed by one or more troops.
type Specialty struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Troop is a cohort following one specialty at a curriculum term. Day is the
// weekday offset from Monday on which the troop is taught.
type Troop struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Day         int       `db:"day" json:"day"`
	Term        int       `db:"term" json:"term"`
	SpecialtyID string    `db:"specialty_id" json:"specialty_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Discipline groups the themes of one subject.
type Discipline struct {
	ID        string    `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	ShortName string    `db:"short_name" json:"short_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Theme is an atomic unit of instruction. Number defines the teaching order
// inside a discipline.
type Theme struct {
	ID                  string         `db:"id" json:"id"`
	Name                string         `db:"name" json:"name"`
	Number              string         `db:"number" json:"number"`
	Term                int            `db:"term" json:"term"`
	Duration            int            `db:"duration" json:"duration"`
	SelfEducationHours  int            `db:"self_education_hours" json:"self_education_hours"`
	AudiencesCount      int            `db:"audiences_count" json:"audiences_count"`
	TeachersCount       int            `db:"teachers_count" json:"teachers_count"`
	DisciplineID        string         `db:"discipline_id" json:"discipline_id"`
	PreviousThemeIDs    pq.StringArray `db:"previous_theme_ids" json:"previous_themes"`
	TeachersMain        pq.StringArray `db:"teachers_main" json:"teachers_main"`
	TeachersAlternative pq.StringArray `db:"teachers_alternative" json:"teachers_alternative"`
	AudienceIDs         pq.StringArray `db:"audience_ids" json:"audiences"`
	SpecialtyIDs        pq.StringArray `db:"specialty_ids" json:"specialties"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

// HasSpecialty reports whether the theme is part of the given specialty curriculum.
func (t Theme) HasSpecialty(specialtyID string) bool {
	for _, id := range t.SpecialtyIDs {
		if id == specialtyID {
			return true
		}
	}
	return false
}

// CourseHours is the full load of the theme, classroom plus self-study.
func (t Theme) CourseHours() int {
	return t.Duration + t.SelfEducationHours
}

// Audience is a room. Audiences eligible for a theme are interchangeable.
type Audience struct {
	ID          string    `db:"id" json:"id"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
