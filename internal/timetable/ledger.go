package timetable

import (
	"time"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// Span is the number of hours a lesson occupies: the theme duration, or its
// self-study hours for self-study lessons.
func Span(lesson models.Lesson, theme models.Theme) int {
	if lesson.SelfEducation {
		return theme.SelfEducationHours
	}
	return theme.Duration
}

type committed struct {
	lesson models.Lesson
	span   int
}

// Ledger is the in-memory record of lessons committed during one build.
type Ledger struct {
	byDate       map[string][]committed
	scheduled    map[string]map[string]bool
	hours        map[string]map[string]int
	teacherHours map[string]int
	lessons      []models.Lesson
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		byDate:       make(map[string][]committed),
		scheduled:    make(map[string]map[string]bool),
		hours:        make(map[string]map[string]int),
		teacherHours: make(map[string]int),
	}
}

// Commit records a lesson of the given theme.
func (l *Ledger) Commit(lesson models.Lesson, theme models.Theme) {
	span := Span(lesson, theme)
	key := dateKey(lesson.Date)
	l.byDate[key] = append(l.byDate[key], committed{lesson: lesson, span: span})

	if !lesson.SelfEducation {
		if l.scheduled[lesson.TroopID] == nil {
			l.scheduled[lesson.TroopID] = make(map[string]bool)
		}
		l.scheduled[lesson.TroopID][lesson.ThemeID] = true
	}
	if l.hours[lesson.TroopID] == nil {
		l.hours[lesson.TroopID] = make(map[string]int)
	}
	l.hours[lesson.TroopID][lesson.ThemeID] += span

	for _, teacherID := range lesson.TeacherIDs {
		l.teacherHours[teacherID] += theme.Duration
	}
	l.lessons = append(l.lessons, lesson)
}

// Scheduled reports whether the troop already has a classroom lesson of the theme.
func (l *Ledger) Scheduled(troopID, themeID string) bool {
	return l.scheduled[troopID][themeID]
}

// CompletedHours returns the hours the troop has committed for a theme.
func (l *Ledger) CompletedHours(troopID, themeID string) int {
	return l.hours[troopID][themeID]
}

// TeacherHours returns the hours taught by a teacher so far.
func (l *Ledger) TeacherHours(teacherID string) int {
	return l.teacherHours[teacherID]
}

// Lessons returns every committed lesson in commit order.
func (l *Ledger) Lessons() []models.Lesson {
	return append([]models.Lesson(nil), l.lessons...)
}

func (l *Ledger) on(date time.Time) []committed {
	return l.byDate[dateKey(date)]
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
