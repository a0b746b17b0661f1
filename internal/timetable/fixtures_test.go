package timetable

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

const testSpecialty = "sp-1"

// Wednesday; the first scheduled Monday is 2024-09-02.
var testStart = time.Date(2024, 9, 4, 15, 30, 0, 0, time.UTC)

var firstMonday = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

func newTroop(id, code string, day int) models.Troop {
	return models.Troop{ID: id, Code: code, Day: day, Term: 1, SpecialtyID: testSpecialty}
}

func newDiscipline(id string) models.Discipline {
	return models.Discipline{ID: id, FullName: "Discipline " + id, ShortName: id}
}

func newTheme(id, disciplineID, number string, duration, selfEducation int) models.Theme {
	return models.Theme{
		ID:                 id,
		Name:               "Theme " + id,
		Number:             number,
		Term:               1,
		Duration:           duration,
		SelfEducationHours: selfEducation,
		TeachersCount:      1,
		AudiencesCount:     1,
		DisciplineID:       disciplineID,
		TeachersMain:       pq.StringArray{"t-1"},
		AudienceIDs:        pq.StringArray{"a-1"},
		SpecialtyIDs:       pq.StringArray{testSpecialty},
	}
}

func newTeacher(id string, limit int) models.Teacher {
	return models.Teacher{ID: id, Name: "Teacher " + id, WorkHoursLimit: limit}
}

func newAudience(id string) models.Audience {
	return models.Audience{ID: id, Location: id}
}

func defaultConfig() Config {
	return Config{LessonHours: 6, SelfEducationHours: 2, Order: Deterministic{}}
}

type recordingWriter struct {
	lessons   []models.Lesson
	failAfter int
}

func (w *recordingWriter) CreateLesson(_ context.Context, lesson *models.Lesson) error {
	if w.failAfter > 0 && len(w.lessons) >= w.failAfter {
		return errors.New("database unavailable")
	}
	w.lessons = append(w.lessons, *lesson)
	return nil
}

func (w *recordingWriter) forTroop(troopID string) []models.Lesson {
	result := make([]models.Lesson, 0)
	for _, lesson := range w.lessons {
		if lesson.TroopID == troopID {
			result = append(result, lesson)
		}
	}
	return result
}

type recordingProgress struct {
	values []int
}

func (p *recordingProgress) SetCurrentLoad(_ context.Context, hours int) error {
	p.values = append(p.values, hours)
	return nil
}

// lessonKey drops the generated fields so two builds can be compared.
type lessonKey struct {
	Date        string
	InitialHour int
	TroopID     string
	ThemeID     string
	SelfStudy   bool
	Teachers    string
	Audiences   string
}

func keysOf(lessons []models.Lesson) []lessonKey {
	keys := make([]lessonKey, len(lessons))
	for i, l := range lessons {
		keys[i] = lessonKey{
			Date:        dateKey(l.Date),
			InitialHour: l.InitialHour,
			TroopID:     l.TroopID,
			ThemeID:     l.ThemeID,
			SelfStudy:   l.SelfEducation,
			Teachers:    joinSorted(l.TeacherIDs),
			Audiences:   joinSorted(l.AudienceIDs),
		}
	}
	return keys
}

func joinSorted(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	out := ""
	for _, id := range sorted {
		out += id + ","
	}
	return out
}
