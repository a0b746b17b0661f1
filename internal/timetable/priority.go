package timetable

import (
	"fmt"
	"sort"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
)

// RankedDiscipline pairs a discipline with the troop completion ratio.
type RankedDiscipline struct {
	Discipline models.Discipline
	Ratio      float64
}

// Priorities ranks disciplines and teachers by current load.
type Priorities struct {
	curriculum *Curriculum
	ledger     *Ledger
}

// NewPriorities builds a priority calculator over a ledger.
func NewPriorities(curriculum *Curriculum, ledger *Ledger) *Priorities {
	return &Priorities{curriculum: curriculum, ledger: ledger}
}

// DisciplinePriority returns the unfinished disciplines of the troop term,
// least served first. Disciplines without course length at the term are left out.
func (p *Priorities) DisciplinePriority(troop models.Troop) []RankedDiscipline {
	ranked := make([]RankedDiscipline, 0)
	for _, discipline := range p.curriculum.Disciplines(troop.SpecialtyID) {
		length := 0
		done := 0
		for _, theme := range p.curriculum.Themes(discipline.ID, troop.Term, troop.SpecialtyID) {
			length += theme.CourseHours()
			done += p.ledger.CompletedHours(troop.ID, theme.ID)
		}
		if length == 0 {
			continue
		}
		ratio := float64(done) / float64(length)
		if ratio >= 1 {
			continue
		}
		ranked = append(ranked, RankedDiscipline{Discipline: discipline, Ratio: ratio})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Ratio < ranked[j].Ratio
	})
	return ranked
}

// TeacherPriority orders candidate teachers by hours taught over their work
// hours limit. Equal ratios keep the candidate order. Unknown ids are skipped.
func (p *Priorities) TeacherPriority(candidates []string) ([]models.Teacher, error) {
	type rankedTeacher struct {
		teacher models.Teacher
		ratio   float64
	}

	ranked := make([]rankedTeacher, 0, len(candidates))
	for _, id := range candidates {
		teacher, ok := p.curriculum.Teacher(id)
		if !ok {
			continue
		}
		if teacher.WorkHoursLimit <= 0 {
			return nil, ZeroCapacityError(teacher)
		}
		ranked = append(ranked, rankedTeacher{
			teacher: teacher,
			ratio:   float64(p.ledger.TeacherHours(id)) / float64(teacher.WorkHoursLimit),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ratio < ranked[j].ratio
	})

	teachers := make([]models.Teacher, len(ranked))
	for i, r := range ranked {
		teachers[i] = r.teacher
	}
	return teachers, nil
}

// ZeroCapacityError reports a teacher that cannot be ranked by load.
func ZeroCapacityError(teacher models.Teacher) error {
	return appErrors.Wrap(
		fmt.Errorf("teacher %s has work hours limit %d", teacher.ID, teacher.WorkHoursLimit),
		appErrors.ErrZeroCapacity.Code,
		appErrors.ErrZeroCapacity.Status,
		fmt.Sprintf("teacher %q has no work hours capacity", teacher.Name),
	)
}
