package timetable

import (
	"time"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// Conflicts finds lessons of other troops that run at the same time as a
// proposed slot.
type Conflicts struct {
	ledger *Ledger
}

// NewConflicts builds a conflict detector over a ledger.
func NewConflicts(ledger *Ledger) *Conflicts {
	return &Conflicts{ledger: ledger}
}

// Overlapping returns the lessons of other troops on date whose hours meet
// [hour, hour+span). A committed lesson starting at h with span s is taken to
// occupy h+1 .. h+s-1 only, so one-hour lessons never conflict and a lesson
// is not seen at its own first hour.
func (c *Conflicts) Overlapping(span int, troop models.Troop, date time.Time, hour int) []models.Lesson {
	result := make([]models.Lesson, 0)
	for _, entry := range c.ledger.on(date) {
		if entry.lesson.TroopID == troop.ID {
			continue
		}
		otherFirst := entry.lesson.InitialHour + 1
		otherLast := entry.lesson.InitialHour + entry.span - 1
		if otherFirst > otherLast {
			continue
		}
		first := hour
		last := hour + span - 1
		if first <= otherLast && otherFirst <= last {
			result = append(result, entry.lesson)
		}
	}
	return result
}

// IsThemeParallel reports whether the theme is already being taught in lessons.
func IsThemeParallel(theme models.Theme, lessons []models.Lesson) bool {
	for _, lesson := range lessons {
		if lesson.ThemeID == theme.ID {
			return true
		}
	}
	return false
}

// BusyTeachers collects the teachers assigned to lessons.
func BusyTeachers(lessons []models.Lesson) map[string]struct{} {
	busy := make(map[string]struct{})
	for _, lesson := range lessons {
		for _, id := range lesson.TeacherIDs {
			busy[id] = struct{}{}
		}
	}
	return busy
}

// BusyAudiences collects the audiences assigned to lessons.
func BusyAudiences(lessons []models.Lesson) map[string]struct{} {
	busy := make(map[string]struct{})
	for _, lesson := range lessons {
		for _, id := range lesson.AudienceIDs {
			busy[id] = struct{}{}
		}
	}
	return busy
}

func freeOf(ids []string, busy map[string]struct{}) []string {
	free := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, taken := busy[id]; !taken {
			free = append(free, id)
		}
	}
	return free
}
