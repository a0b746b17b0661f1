package models

import (
	"time"

	"github.com/lib/pq"
)

// Lesson is one scheduled occurrence of a theme for a troop. Lessons are
// written once by a build and never updated.
type Lesson struct {
	ID            string         `db:"id" json:"id"`
	Date          time.Time      `db:"date_of" json:"date"`
	InitialHour   int            `db:"initial_hour" json:"initial_hour"`
	TroopID       string         `db:"troop_id" json:"troop_id"`
	ThemeID       string         `db:"theme_id" json:"theme_id"`
	SelfEducation bool           `db:"self_education" json:"self_education"`
	TeacherIDs    pq.StringArray `db:"teacher_ids" json:"teachers"`
	AudienceIDs   pq.StringArray `db:"audience_ids" json:"audiences"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// Understaffed reports lessons accepted without a full resource set.
func (l Lesson) Understaffed() bool {
	return len(l.TeacherIDs) == 0 || len(l.AudienceIDs) == 0
}

// LessonFilter narrows lesson listings.
type LessonFilter struct {
	TroopID  string
	DateFrom *time.Time
	DateTo   *time.Time
}
