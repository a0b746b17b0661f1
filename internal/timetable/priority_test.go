package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
)

func TestDisciplinePriorityOrdersByCompletion(t *testing.T) {
	termTwo := newTheme("th-gap", "d-gap", "1", 4, 0)
	termTwo.Term = 2

	troop := newTroop("tr-1", "101", 0)
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-2"), newDiscipline("d-3"), newDiscipline("d-gap")},
		Themes: []models.Theme{
			newTheme("th-1a", "d-1", "1", 2, 0),
			newTheme("th-1b", "d-1", "2", 2, 0),
			newTheme("th-2a", "d-2", "1", 4, 0),
			newTheme("th-3a", "d-3", "1", 2, 2),
			termTwo,
		},
	})
	ledger := NewLedger()
	p := NewPriorities(c, ledger)

	ranked := p.DisciplinePriority(troop)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"d-1", "d-2", "d-3"}, disciplineIDs(ranked))

	ledger.Commit(models.Lesson{TroopID: troop.ID, ThemeID: "th-1a", Date: firstMonday}, c.themes["th-1a"])
	ledger.Commit(models.Lesson{TroopID: troop.ID, ThemeID: "th-3a", Date: firstMonday}, c.themes["th-3a"])

	ranked = p.DisciplinePriority(troop)
	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"d-2", "d-1", "d-3"}, disciplineIDs(ranked))
	assert.InDelta(t, 0.5, ranked[1].Ratio, 1e-9)
	assert.InDelta(t, 0.5, ranked[2].Ratio, 1e-9)

	ledger.Commit(models.Lesson{TroopID: troop.ID, ThemeID: "th-3a", Date: firstMonday, SelfEducation: true}, c.themes["th-3a"])
	ranked = p.DisciplinePriority(troop)
	assert.Equal(t, []string{"d-2", "d-1"}, disciplineIDs(ranked))

	other := newTroop("tr-2", "102", 0)
	assert.Len(t, p.DisciplinePriority(other), 3)
}

func TestTeacherPriorityRanksByLoadAndKeepsTies(t *testing.T) {
	c := NewCurriculum(Snapshot{
		Teachers: []models.Teacher{newTeacher("t-1", 10), newTeacher("t-2", 100), newTeacher("t-3", 10), newTeacher("t-4", 20)},
	})
	ledger := NewLedger()
	p := NewPriorities(c, ledger)

	theme := newTheme("th-1", "d-1", "1", 4, 0)
	ledger.Commit(models.Lesson{TroopID: "tr-1", ThemeID: "th-1", Date: firstMonday, TeacherIDs: []string{"t-1", "t-2"}}, theme)

	teachers, err := p.TeacherPriority([]string{"t-1", "t-2", "t-3", "t-4", "unknown"})
	require.NoError(t, err)
	ids := make([]string, len(teachers))
	for i, teacher := range teachers {
		ids[i] = teacher.ID
	}
	assert.Equal(t, []string{"t-3", "t-4", "t-2", "t-1"}, ids)

	teachers, err = p.TeacherPriority([]string{"t-4", "t-3"})
	require.NoError(t, err)
	assert.Equal(t, "t-4", teachers[0].ID)
}

func TestTeacherPriorityZeroCapacity(t *testing.T) {
	c := NewCurriculum(Snapshot{Teachers: []models.Teacher{newTeacher("t-1", 10), newTeacher("t-0", 0)}})
	p := NewPriorities(c, NewLedger())

	_, err := p.TeacherPriority([]string{"t-1", "t-0"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrZeroCapacity))
	assert.Equal(t, 422, appErrors.FromError(err).Status)
}

func disciplineIDs(ranked []RankedDiscipline) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.Discipline.ID
	}
	return ids
}
