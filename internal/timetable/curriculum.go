package timetable

import (
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// Snapshot is the read-only curriculum a build runs against.
type Snapshot struct {
	Troops      []models.Troop
	Disciplines []models.Discipline
	Themes      []models.Theme
	Teachers    []models.Teacher
	Audiences   []models.Audience
}

// Curriculum indexes a Snapshot for the lookups the scheduler performs.
type Curriculum struct {
	troops      []models.Troop
	disciplines []models.Discipline
	themes      map[string]models.Theme
	teachers    map[string]models.Teacher
	audiences   map[string]models.Audience

	// discipline id -> term -> themes sorted by number
	byDisciplineTerm map[string]map[int][]models.Theme
}

// NewCurriculum indexes the snapshot. Themes of a discipline are kept in
// teaching order.
func NewCurriculum(s Snapshot) *Curriculum {
	c := &Curriculum{
		troops:           append([]models.Troop(nil), s.Troops...),
		disciplines:      append([]models.Discipline(nil), s.Disciplines...),
		themes:           make(map[string]models.Theme, len(s.Themes)),
		teachers:         make(map[string]models.Teacher, len(s.Teachers)),
		audiences:        make(map[string]models.Audience, len(s.Audiences)),
		byDisciplineTerm: make(map[string]map[int][]models.Theme),
	}
	for _, theme := range s.Themes {
		c.themes[theme.ID] = theme
		terms, ok := c.byDisciplineTerm[theme.DisciplineID]
		if !ok {
			terms = make(map[int][]models.Theme)
			c.byDisciplineTerm[theme.DisciplineID] = terms
		}
		terms[theme.Term] = append(terms[theme.Term], theme)
	}
	for _, terms := range c.byDisciplineTerm {
		for term := range terms {
			themes := terms[term]
			sort.SliceStable(themes, func(i, j int) bool {
				return CompareThemeNumbers(themes[i].Number, themes[j].Number) < 0
			})
		}
	}
	for _, teacher := range s.Teachers {
		c.teachers[teacher.ID] = teacher
	}
	for _, audience := range s.Audiences {
		c.audiences[audience.ID] = audience
	}
	return c
}

// Troops returns the troops of the snapshot in their stored order.
func (c *Curriculum) Troops() []models.Troop {
	return append([]models.Troop(nil), c.troops...)
}

// Theme looks up a theme by id.
func (c *Curriculum) Theme(id string) (models.Theme, bool) {
	theme, ok := c.themes[id]
	return theme, ok
}

// Teacher looks up a teacher by id.
func (c *Curriculum) Teacher(id string) (models.Teacher, bool) {
	teacher, ok := c.teachers[id]
	return teacher, ok
}

// Discipline looks up a discipline by id.
func (c *Curriculum) Discipline(id string) (models.Discipline, bool) {
	for _, discipline := range c.disciplines {
		if discipline.ID == id {
			return discipline, true
		}
	}
	return models.Discipline{}, false
}

// Audience looks up an audience by id.
func (c *Curriculum) Audience(id string) (models.Audience, bool) {
	audience, ok := c.audiences[id]
	return audience, ok
}

// AllThemes returns every theme of the snapshot ordered by id.
func (c *Curriculum) AllThemes() []models.Theme {
	themes := make([]models.Theme, 0, len(c.themes))
	for _, theme := range c.themes {
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	return themes
}

// Disciplines returns the disciplines taught to a specialty, derived from the
// themes referencing it, in snapshot order.
func (c *Curriculum) Disciplines(specialtyID string) []models.Discipline {
	result := make([]models.Discipline, 0)
	for _, discipline := range c.disciplines {
		for _, themes := range c.byDisciplineTerm[discipline.ID] {
			if containsSpecialty(themes, specialtyID) {
				result = append(result, discipline)
				break
			}
		}
	}
	return result
}

// Themes returns the themes of a discipline at a term that belong to the
// specialty, in teaching order.
func (c *Curriculum) Themes(disciplineID string, term int, specialtyID string) []models.Theme {
	all := c.byDisciplineTerm[disciplineID][term]
	result := make([]models.Theme, 0, len(all))
	for _, theme := range all {
		if theme.HasSpecialty(specialtyID) {
			result = append(result, theme)
		}
	}
	return result
}

// CourseLength sums duration plus self-study hours of the discipline themes at
// the term for the specialty.
func (c *Curriculum) CourseLength(disciplineID string, term int, specialtyID string) int {
	total := 0
	for _, theme := range c.Themes(disciplineID, term, specialtyID) {
		total += theme.CourseHours()
	}
	return total
}

// SpecialtyCourseLength is the full term load of a specialty.
func (c *Curriculum) SpecialtyCourseLength(specialtyID string, term int) int {
	total := 0
	for _, discipline := range c.Disciplines(specialtyID) {
		total += c.CourseLength(discipline.ID, term, specialtyID)
	}
	return total
}

// TotalLoad is the number of hours a complete build would commit for every troop.
func (c *Curriculum) TotalLoad() int {
	total := 0
	for _, troop := range c.troops {
		total += c.SpecialtyCourseLength(troop.SpecialtyID, troop.Term)
	}
	return total
}

func containsSpecialty(themes []models.Theme, specialtyID string) bool {
	for _, theme := range themes {
		if theme.HasSpecialty(specialtyID) {
			return true
		}
	}
	return false
}

// CompareThemeNumbers orders dotted theme numbers such as "1.2" and "10.1".
// Segments are compared numerically when both parse as integers.
func CompareThemeNumbers(a, b string) int {
	left := strings.Split(strings.TrimSpace(a), ".")
	right := strings.Split(strings.TrimSpace(b), ".")
	for i := 0; i < len(left) && i < len(right); i++ {
		if cmp := compareSegment(left[i], right[i]); cmp != 0 {
			return cmp
		}
	}
	switch {
	case len(left) < len(right):
		return -1
	case len(left) > len(right):
		return 1
	default:
		return 0
	}
}

func compareSegment(a, b string) int {
	x, errX := strconv.Atoi(a)
	y, errY := strconv.Atoi(b)
	if errX == nil && errY == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
