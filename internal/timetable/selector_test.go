package timetable

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// parallelFixture has two equal-length head themes; th-x is already being
// taught to tr-9 from hour 0.
func parallelFixture(t *testing.T) (*Selector, *Curriculum, models.Troop) {
	t.Helper()
	themeX := newTheme("th-x", "d-x", "1", 2, 0)
	themeX.TeachersMain = pq.StringArray{"t-1", "t-2"}
	themeY := newTheme("th-y", "d-y", "1", 2, 0)
	themeY.TeachersMain = pq.StringArray{"t-3"}

	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{newTroop("tr-1", "101", 0), newTroop("tr-9", "109", 0)},
		Disciplines: []models.Discipline{newDiscipline("d-x"), newDiscipline("d-y")},
		Themes:      []models.Theme{themeX, themeY},
		Teachers:    []models.Teacher{newTeacher("t-1", 100), newTeacher("t-2", 100), newTeacher("t-3", 100)},
		Audiences:   []models.Audience{newAudience("a-1"), newAudience("a-9")},
	})

	ledger := NewLedger()
	ledger.Commit(models.Lesson{ID: "l-x", TroopID: "tr-9", ThemeID: "th-x", Date: firstMonday, InitialHour: 0,
		TeacherIDs: pq.StringArray{"t-1"}, AudienceIDs: pq.StringArray{"a-9"}}, themeX)

	priorities := NewPriorities(c, ledger)
	return NewSelector(c, ledger, priorities, NewConflicts(ledger), 6), c, newTroop("tr-1", "101", 0)
}

func rankedOf(c *Curriculum, ids ...string) []RankedDiscipline {
	ranked := make([]RankedDiscipline, 0, len(ids))
	for _, id := range ids {
		discipline, _ := c.Discipline(id)
		ranked = append(ranked, RankedDiscipline{Discipline: discipline})
	}
	return ranked
}

func TestSelectLessonSkipsThemeRunningForAnotherTroop(t *testing.T) {
	selector, c, troop := parallelFixture(t)

	candidate, err := selector.SelectLesson(rankedOf(c, "d-x", "d-y"), troop, firstMonday, 0)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "th-y", candidate.Theme.ID)
	assert.Equal(t, []string{"t-3"}, candidate.TeacherIDs)
}

func TestSelectLessonAcceptsParallelThemeWhenLast(t *testing.T) {
	selector, c, troop := parallelFixture(t)

	candidate, err := selector.SelectLesson(rankedOf(c, "d-x"), troop, firstMonday, 0)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "th-x", candidate.Theme.ID)
	assert.Equal(t, []string{"t-2"}, candidate.TeacherIDs, "the teacher busy with tr-9 is not taken")
	assert.Equal(t, []string{"a-1"}, candidate.AudienceIDs)
}

func TestSelectLessonParallelOnlyAtOverlappingHours(t *testing.T) {
	selector, c, troop := parallelFixture(t)

	candidate, err := selector.SelectLesson(rankedOf(c, "d-x", "d-y"), troop, firstMonday, 2)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "th-x", candidate.Theme.ID)
}

func TestSelectLessonStopsWhenTopDisciplineComplete(t *testing.T) {
	selector, c, troop := parallelFixture(t)

	for _, ratio := range []float64{1, 1.5} {
		ranked := rankedOf(c, "d-y")
		ranked[0].Ratio = ratio
		candidate, err := selector.SelectLesson(ranked, troop, firstMonday, 0)
		require.NoError(t, err)
		assert.Nil(t, candidate, "ratio %v", ratio)
	}

	candidate, err := selector.SelectLesson(nil, troop, firstMonday, 0)
	require.NoError(t, err)
	assert.Nil(t, candidate)
}
