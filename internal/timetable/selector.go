package timetable

import (
	"sort"
	"time"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// Candidate is a theme proposed for a slot together with its resources.
// Empty TeacherIDs or AudienceIDs mean it was accepted understaffed.
type Candidate struct {
	Theme       models.Theme
	TeacherIDs  []string
	AudienceIDs []string
}

// Selector picks the next theme and resources for a troop slot.
type Selector struct {
	curriculum  *Curriculum
	ledger      *Ledger
	priorities  *Priorities
	conflicts   *Conflicts
	lessonHours int
}

// NewSelector wires a selector for a main block of lessonHours hours.
func NewSelector(curriculum *Curriculum, ledger *Ledger, priorities *Priorities, conflicts *Conflicts, lessonHours int) *Selector {
	return &Selector{
		curriculum:  curriculum,
		ledger:      ledger,
		priorities:  priorities,
		conflicts:   conflicts,
		lessonHours: lessonHours,
	}
}

type headTheme struct {
	theme models.Theme
	ratio float64
}

// SelectLesson proposes a classroom lesson starting at hour. It returns nil
// when no head theme fits the rest of the day.
func (s *Selector) SelectLesson(ranked []RankedDiscipline, troop models.Troop, date time.Time, hour int) (*Candidate, error) {
	if len(ranked) == 0 || ranked[0].Ratio >= 1 {
		return nil, nil
	}

	heads := s.headThemes(ranked, troop, hour)
	for i, head := range heads {
		last := i == len(heads)-1
		theme := head.theme

		overlapping := s.conflicts.Overlapping(theme.Duration, troop, date, hour)
		if IsThemeParallel(theme, overlapping) && !last {
			continue
		}

		teachers, staffed, err := s.acquireTeachers(theme, overlapping, theme.TeachersCount)
		if err != nil {
			return nil, err
		}
		if !staffed && !last {
			continue
		}

		audiences, housed := s.acquireAudiences(theme, overlapping, theme.AudiencesCount)
		if !housed && !last {
			continue
		}

		return &Candidate{Theme: theme, TeacherIDs: teachers, AudienceIDs: audiences}, nil
	}
	return nil, nil
}

// SelectSelfStudy proposes a self-study lesson from buffer starting at hour.
// Only themes whose self-study hours fit under ceiling are considered; one
// teacher and one audience are taken at most. The index of the chosen theme
// in buffer is returned with it.
func (s *Selector) SelectSelfStudy(buffer []models.Theme, troop models.Troop, date time.Time, hour, ceiling int) (*Candidate, int, error) {
	fitting := make([]int, 0, len(buffer))
	for i, theme := range buffer {
		if theme.SelfEducationHours > 0 && hour+theme.SelfEducationHours <= ceiling {
			fitting = append(fitting, i)
		}
	}

	for n, idx := range fitting {
		last := n == len(fitting)-1
		theme := buffer[idx]

		overlapping := s.conflicts.Overlapping(theme.SelfEducationHours, troop, date, hour)
		teachers, staffed, err := s.acquireTeachers(theme, overlapping, minInt(1, theme.TeachersCount))
		if err != nil {
			return nil, -1, err
		}
		audiences, housed := s.acquireAudiences(theme, overlapping, minInt(1, theme.AudiencesCount))
		if (!staffed || !housed) && !last {
			continue
		}
		return &Candidate{Theme: theme, TeacherIDs: teachers, AudienceIDs: audiences}, idx, nil
	}
	return nil, -1, nil
}

func (s *Selector) headThemes(ranked []RankedDiscipline, troop models.Troop, hour int) []headTheme {
	heads := make([]headTheme, 0, len(ranked))
	for _, r := range ranked {
		theme, ok := s.nextTheme(r.Discipline.ID, troop)
		if !ok {
			continue
		}
		if hour+theme.Duration > s.lessonHours {
			continue
		}
		if !s.prerequisitesMet(theme, troop) {
			continue
		}
		heads = append(heads, headTheme{theme: theme, ratio: r.Ratio})
	}
	sort.SliceStable(heads, func(i, j int) bool {
		if heads[i].theme.Duration != heads[j].theme.Duration {
			return heads[i].theme.Duration > heads[j].theme.Duration
		}
		return heads[i].ratio < heads[j].ratio
	})
	return heads
}

// nextTheme is the lowest numbered theme of the discipline without a
// classroom lesson for the troop.
func (s *Selector) nextTheme(disciplineID string, troop models.Troop) (models.Theme, bool) {
	for _, theme := range s.curriculum.Themes(disciplineID, troop.Term, troop.SpecialtyID) {
		if !s.ledger.Scheduled(troop.ID, theme.ID) {
			return theme, true
		}
	}
	return models.Theme{}, false
}

func (s *Selector) prerequisitesMet(theme models.Theme, troop models.Troop) bool {
	for _, id := range theme.PreviousThemeIDs {
		if !s.ledger.Scheduled(troop.ID, id) {
			return false
		}
	}
	return true
}

func (s *Selector) acquireTeachers(theme models.Theme, overlapping []models.Lesson, count int) ([]string, bool, error) {
	busy := BusyTeachers(overlapping)
	main, err := s.priorities.TeacherPriority(freeOf(theme.TeachersMain, busy))
	if err != nil {
		return nil, false, err
	}
	for _, id := range theme.TeachersMain {
		busy[id] = struct{}{}
	}
	alternative, err := s.priorities.TeacherPriority(freeOf(theme.TeachersAlternative, busy))
	if err != nil {
		return nil, false, err
	}

	acquired, satisfied := NewPool(teacherIDs(main), teacherIDs(alternative)).Acquire(count)
	return acquired, satisfied, nil
}

func (s *Selector) acquireAudiences(theme models.Theme, overlapping []models.Lesson, count int) ([]string, bool) {
	free := freeOf(theme.AudienceIDs, BusyAudiences(overlapping))
	return NewPool(free, nil).Acquire(count)
}

func teacherIDs(teachers []models.Teacher) []string {
	ids := make([]string, len(teachers))
	for i, teacher := range teachers {
		ids[i] = teacher.ID
	}
	return ids
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
