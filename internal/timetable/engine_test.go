package timetable

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
)

func TestBuildPacksLongestThemeFirst(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-short"), newDiscipline("d-long")},
		Themes: []models.Theme{
			newTheme("th-2h", "d-short", "1", 2, 0),
			newTheme("th-4h", "d-long", "1", 4, 0),
		},
		Teachers:  []models.Teacher{newTeacher("t-1", 100)},
		Audiences: []models.Audience{newAudience("a-1")},
	})
	writer := &recordingWriter{}

	result, err := NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 1)
	require.NoError(t, err)

	require.Len(t, writer.lessons, 2)
	assert.Equal(t, "th-4h", writer.lessons[0].ThemeID)
	assert.Equal(t, 0, writer.lessons[0].InitialHour)
	assert.Equal(t, "th-2h", writer.lessons[1].ThemeID)
	assert.Equal(t, 4, writer.lessons[1].InitialHour)
	for _, lesson := range writer.lessons {
		assert.Equal(t, firstMonday, lesson.Date)
		assert.False(t, lesson.SelfEducation)
		assert.Equal(t, []string{"t-1"}, []string(lesson.TeacherIDs))
		assert.Equal(t, []string{"a-1"}, []string(lesson.AudienceIDs))
		assert.NotEmpty(t, lesson.ID)
	}
	assert.Equal(t, 2, result.Lessons)
	assert.Equal(t, 6, result.CommittedHours)
	assert.Zero(t, result.Understaffed)
}

func TestBuildWaitsForPrerequisites(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	first := newTheme("th-a", "d-1", "1", 2, 0)
	second := newTheme("th-b", "d-2", "1", 4, 0)
	second.PreviousThemeIDs = pq.StringArray{"th-a"}
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-2")},
		Themes:      []models.Theme{first, second},
		Teachers:    []models.Teacher{newTeacher("t-1", 100)},
		Audiences:   []models.Audience{newAudience("a-1")},
	})

	ledger := NewLedger()
	priorities := NewPriorities(c, ledger)
	selector := NewSelector(c, ledger, priorities, NewConflicts(ledger), 6)

	candidate, err := selector.SelectLesson(priorities.DisciplinePriority(troop), troop, firstMonday, 0)
	require.NoError(t, err)
	require.NotNil(t, candidate)
	assert.Equal(t, "th-a", candidate.Theme.ID)

	onlyBlocked := []RankedDiscipline{{Discipline: newDiscipline("d-2")}}
	candidate, err = selector.SelectLesson(onlyBlocked, troop, firstMonday, 0)
	require.NoError(t, err)
	assert.Nil(t, candidate)

	writer := &recordingWriter{}
	_, err = NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 1)
	require.NoError(t, err)
	require.Len(t, writer.lessons, 2)
	assert.Equal(t, "th-a", writer.lessons[0].ThemeID)
	assert.Equal(t, "th-b", writer.lessons[1].ThemeID)
	assert.Equal(t, 2, writer.lessons[1].InitialHour)
}

func TestBuildFirstTroopWinsContestedTeacher(t *testing.T) {
	first := newTroop("tr-1", "101", 0)
	second := newTroop("tr-2", "102", 0)
	theme := newTheme("th-x", "d-1", "1", 2, 0)
	theme.AudienceIDs = pq.StringArray{"a-1", "a-2"}
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{second, first},
		Disciplines: []models.Discipline{newDiscipline("d-1")},
		Themes:      []models.Theme{theme},
		Teachers:    []models.Teacher{newTeacher("t-1", 100)},
		Audiences:   []models.Audience{newAudience("a-1"), newAudience("a-2")},
	})
	writer := &recordingWriter{}

	result, err := NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 1)
	require.NoError(t, err)

	winner := writer.forTroop("tr-1")
	require.Len(t, winner, 1)
	assert.Equal(t, []string{"t-1"}, []string(winner[0].TeacherIDs))
	assert.Equal(t, []string{"a-1"}, []string(winner[0].AudienceIDs))

	loser := writer.forTroop("tr-2")
	require.Len(t, loser, 1)
	assert.Empty(t, loser[0].TeacherIDs)
	assert.Equal(t, []string{"a-2"}, []string(loser[0].AudienceIDs))
	assert.True(t, loser[0].Understaffed())
	assert.Equal(t, 1, result.Understaffed)
}

func TestBuildSkipsUnstaffedCandidateWhenAnotherRemains(t *testing.T) {
	first := newTroop("tr-1", "101", 0)
	second := newTroop("tr-2", "102", 0)
	second.SpecialtyID = "sp-2"

	taken := newTheme("th-x", "d-1", "1", 2, 0)
	contested := newTheme("th-z", "d-3", "1", 2, 0)
	contested.SpecialtyIDs = pq.StringArray{"sp-2"}
	contested.AudienceIDs = pq.StringArray{"a-2"}
	spare := newTheme("th-y", "d-2", "1", 2, 0)
	spare.SpecialtyIDs = pq.StringArray{"sp-2"}
	spare.TeachersMain = pq.StringArray{"t-2"}
	spare.AudienceIDs = pq.StringArray{"a-3"}
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{first, second},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-3"), newDiscipline("d-2")},
		Themes:      []models.Theme{taken, contested, spare},
		Teachers:    []models.Teacher{newTeacher("t-1", 100), newTeacher("t-2", 100)},
		Audiences:   []models.Audience{newAudience("a-1"), newAudience("a-2"), newAudience("a-3")},
	})
	writer := &recordingWriter{}

	_, err := NewEngine(c, writer, nil, Config{LessonHours: 2, Order: Deterministic{}}, nil).Build(context.Background(), testStart, 1)
	require.NoError(t, err)

	lessons := writer.forTroop("tr-2")
	require.Len(t, lessons, 1)
	assert.Equal(t, "th-y", lessons[0].ThemeID)
	assert.Equal(t, []string{"t-2"}, []string(lessons[0].TeacherIDs))
	assert.Equal(t, []string{"a-3"}, []string(lessons[0].AudienceIDs))
}

func TestBuildTopsUpFromAlternativeTeachers(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	theme := newTheme("th-x", "d-1", "1", 2, 0)
	theme.TeachersCount = 3
	theme.TeachersMain = pq.StringArray{"t-main"}
	theme.TeachersAlternative = pq.StringArray{"t-alt-1", "t-alt-2", "t-main"}
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1")},
		Themes:      []models.Theme{theme},
		Teachers:    []models.Teacher{newTeacher("t-main", 10), newTeacher("t-alt-1", 10), newTeacher("t-alt-2", 10)},
		Audiences:   []models.Audience{newAudience("a-1")},
	})
	writer := &recordingWriter{}

	_, err := NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 1)
	require.NoError(t, err)
	require.Len(t, writer.lessons, 1)
	assert.Equal(t, []string{"t-main", "t-alt-1", "t-alt-2"}, []string(writer.lessons[0].TeacherIDs))
}

func TestBuildIgnoresDisciplinesWithoutCourseLength(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	later := newTheme("th-later", "d-later", "1", 2, 0)
	later.Term = 2
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-now"), newDiscipline("d-later")},
		Themes:      []models.Theme{newTheme("th-now", "d-now", "1", 2, 0), later},
		Teachers:    []models.Teacher{newTeacher("t-1", 100)},
		Audiences:   []models.Audience{newAudience("a-1")},
	})

	ranked := NewPriorities(c, NewLedger()).DisciplinePriority(troop)
	assert.Equal(t, []string{"d-now"}, disciplineIDs(ranked))

	writer := &recordingWriter{}
	_, err := NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 3)
	require.NoError(t, err)
	for _, lesson := range writer.lessons {
		assert.NotEqual(t, "th-later", lesson.ThemeID)
	}
	require.Len(t, writer.lessons, 1)
}

func TestBuildCarriesSelfStudyToNextWeek(t *testing.T) {
	troop := newTroop("tr-1", "101", 2)
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-2")},
		Themes: []models.Theme{
			newTheme("th-a", "d-1", "1", 2, 3),
			newTheme("th-b", "d-2", "1", 4, 2),
		},
		Teachers:  []models.Teacher{newTeacher("t-1", 100)},
		Audiences: []models.Audience{newAudience("a-1")},
	})
	writer := &recordingWriter{}
	progress := &recordingProgress{}

	result, err := NewEngine(c, writer, progress, Config{LessonHours: 6, SelfEducationHours: 3}, nil).
		Build(context.Background(), testStart, 2)
	require.NoError(t, err)

	wednesday := firstMonday.AddDate(0, 0, 2)
	require.Len(t, writer.lessons, 4)

	assert.Equal(t, lessonKey{Date: dateKey(wednesday), InitialHour: 0, TroopID: "tr-1", ThemeID: "th-b", Teachers: "t-1,", Audiences: "a-1,"}, keysOf(writer.lessons)[0])
	assert.Equal(t, lessonKey{Date: dateKey(wednesday), InitialHour: 4, TroopID: "tr-1", ThemeID: "th-a", Teachers: "t-1,", Audiences: "a-1,"}, keysOf(writer.lessons)[1])
	assert.Equal(t, lessonKey{Date: dateKey(wednesday), InitialHour: 6, TroopID: "tr-1", ThemeID: "th-a", SelfStudy: true, Teachers: "t-1,", Audiences: "a-1,"}, keysOf(writer.lessons)[2])
	assert.Equal(t, lessonKey{Date: dateKey(wednesday.AddDate(0, 0, 7)), InitialHour: 6, TroopID: "tr-1", ThemeID: "th-b", SelfStudy: true, Teachers: "t-1,", Audiences: "a-1,"}, keysOf(writer.lessons)[3])

	assert.Equal(t, 2, result.SelfStudyLessons)
	assert.Equal(t, 11, result.CommittedHours)
	assert.Equal(t, c.TotalLoad(), result.CommittedHours)
	assert.Equal(t, []int{0, 4, 6, 9, 11}, progress.values)
}

func TestBuildWarnsAboutSelfStudyLongerThanBlock(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-2")},
		Themes: []models.Theme{
			newTheme("th-long", "d-1", "1", 2, 3),
			newTheme("th-fits", "d-2", "1", 2, 2),
		},
		Teachers:  []models.Teacher{newTeacher("t-1", 100)},
		Audiences: []models.Audience{newAudience("a-1")},
	})
	core, logs := observer.New(zapcore.WarnLevel)
	writer := &recordingWriter{}

	result, err := NewEngine(c, writer, nil, defaultConfig(), zap.New(core)).Build(context.Background(), testStart, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"th-long"}, result.OversizedSelfStudy)
	warnings := logs.FilterField(zap.String("theme_id", "th-long")).All()
	require.Len(t, warnings, 1, "warned once per build, not per week")
	for _, lesson := range writer.lessons {
		if lesson.SelfEducation {
			assert.Equal(t, "th-fits", lesson.ThemeID)
		}
	}
	assert.Equal(t, 1, result.SelfStudyLessons)
}

func TestBuildSelfStudyBufferOrdersTodayFirst(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	// week 1 leaves th-b (2h self-study) behind, week 2 adds th-c (1h)
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-2")},
		Themes: []models.Theme{
			newTheme("th-a", "d-1", "1", 2, 3),
			newTheme("th-b", "d-2", "1", 4, 2),
			newTheme("th-c", "d-1", "2", 6, 1),
		},
		Teachers:  []models.Teacher{newTeacher("t-1", 100)},
		Audiences: []models.Audience{newAudience("a-1")},
	})
	writer := &recordingWriter{}

	_, err := NewEngine(c, writer, nil, Config{LessonHours: 6, SelfEducationHours: 3}, nil).
		Build(context.Background(), testStart, 2)
	require.NoError(t, err)

	second := firstMonday.AddDate(0, 0, 7)
	var weekTwo []lessonKey
	for _, key := range keysOf(writer.lessons) {
		if key.Date == dateKey(second) {
			weekTwo = append(weekTwo, key)
		}
	}
	require.Len(t, weekTwo, 3)
	assert.Equal(t, "th-c", weekTwo[0].ThemeID)
	assert.Equal(t, lessonKey{Date: dateKey(second), InitialHour: 6, TroopID: "tr-1", ThemeID: "th-c", SelfStudy: true, Teachers: "t-1,", Audiences: "a-1,"}, weekTwo[1])
	assert.Equal(t, lessonKey{Date: dateKey(second), InitialHour: 7, TroopID: "tr-1", ThemeID: "th-b", SelfStudy: true, Teachers: "t-1,", Audiences: "a-1,"}, weekTwo[2])
}

func TestBuildInvariantsOnLargerCurriculum(t *testing.T) {
	c, cfg := largeCurriculum()
	writer := &recordingWriter{}

	_, err := NewEngine(c, writer, nil, cfg, nil).Build(context.Background(), testStart, 6)
	require.NoError(t, err)
	require.NotEmpty(t, writer.lessons)

	type slot struct {
		troop string
		date  string
	}
	occupied := make(map[slot]map[int]string)
	seen := make(map[string]map[string]int)
	for i, lesson := range writer.lessons {
		theme, ok := c.Theme(lesson.ThemeID)
		require.True(t, ok)
		span := Span(lesson, theme)

		ceiling := cfg.LessonHours
		if lesson.SelfEducation {
			ceiling += cfg.SelfEducationHours
			assert.GreaterOrEqual(t, lesson.InitialHour, cfg.LessonHours)
			assert.LessOrEqual(t, len(lesson.TeacherIDs), 1)
			assert.LessOrEqual(t, len(lesson.AudienceIDs), 1)
		} else {
			assert.LessOrEqual(t, len(lesson.TeacherIDs), theme.TeachersCount)
			assert.LessOrEqual(t, len(lesson.AudienceIDs), theme.AudiencesCount)
		}
		assert.LessOrEqual(t, lesson.InitialHour+span, ceiling, "lesson %s exceeds the day", lesson.ID)

		key := slot{troop: lesson.TroopID, date: dateKey(lesson.Date)}
		if occupied[key] == nil {
			occupied[key] = make(map[int]string)
		}
		for h := lesson.InitialHour; h < lesson.InitialHour+span; h++ {
			other, clash := occupied[key][h]
			assert.False(t, clash, "troop %s double booked at %s hour %d with %s", lesson.TroopID, key.date, h, other)
			occupied[key][h] = lesson.ID
		}

		if !lesson.SelfEducation {
			for _, prev := range theme.PreviousThemeIDs {
				idx, done := seen[lesson.TroopID][prev]
				assert.True(t, done, "theme %s scheduled before prerequisite %s", theme.ID, prev)
				assert.Less(t, idx, i)
			}
			if seen[lesson.TroopID] == nil {
				seen[lesson.TroopID] = make(map[string]int)
			}
			_, dup := seen[lesson.TroopID][theme.ID]
			assert.False(t, dup, "theme %s taught twice to %s", theme.ID, lesson.TroopID)
			seen[lesson.TroopID][theme.ID] = i
		}
	}
}

func TestBuildIsRepeatable(t *testing.T) {
	c, cfg := largeCurriculum()
	engine := NewEngine(c, &recordingWriter{}, nil, cfg, nil)

	first := &recordingWriter{}
	engine.writer = first
	_, err := engine.Build(context.Background(), testStart, 4)
	require.NoError(t, err)

	second := &recordingWriter{}
	engine.writer = second
	_, err = engine.Build(context.Background(), testStart, 4)
	require.NoError(t, err)

	assert.Equal(t, keysOf(first.lessons), keysOf(second.lessons))
	assert.Equal(t, len(first.lessons), len(engine.Ledger().Lessons()))
}

func TestBuildRandomizedOrderIsSeeded(t *testing.T) {
	c, cfg := largeCurriculum()
	cfg.Order = Randomized{Seed: 7}

	first := &recordingWriter{}
	_, err := NewEngine(c, first, nil, cfg, nil).Build(context.Background(), testStart, 3)
	require.NoError(t, err)
	second := &recordingWriter{}
	_, err = NewEngine(c, second, nil, cfg, nil).Build(context.Background(), testStart, 3)
	require.NoError(t, err)

	assert.Equal(t, keysOf(first.lessons), keysOf(second.lessons))
}

func TestBuildAbortsOnWriteFailure(t *testing.T) {
	c, cfg := largeCurriculum()
	writer := &recordingWriter{failAfter: 2}

	result, err := NewEngine(c, writer, nil, cfg, nil).Build(context.Background(), testStart, 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Len(t, writer.lessons, 2)
	assert.Equal(t, 2, result.Lessons)
}

func TestBuildFailsFastOnZeroCapacity(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	theme := newTheme("th-a", "d-1", "1", 2, 0)
	theme.TeachersAlternative = pq.StringArray{"t-0"}
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1")},
		Themes:      []models.Theme{theme},
		Teachers:    []models.Teacher{newTeacher("t-1", 10), newTeacher("t-0", 0)},
		Audiences:   []models.Audience{newAudience("a-1")},
	})
	writer := &recordingWriter{}

	_, err := NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 1)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrZeroCapacity))
	assert.Empty(t, writer.lessons)
}

func TestBuildRejectsInvalidArguments(t *testing.T) {
	c, cfg := largeCurriculum()

	_, err := NewEngine(c, &recordingWriter{}, nil, cfg, nil).Build(context.Background(), testStart, 0)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = NewEngine(c, &recordingWriter{}, nil, Config{}, nil).Build(context.Background(), testStart, 1)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
}

func TestBuildLeavesCyclicThemesUnscheduled(t *testing.T) {
	troop := newTroop("tr-1", "101", 0)
	a := newTheme("th-a", "d-1", "1", 2, 0)
	a.PreviousThemeIDs = pq.StringArray{"th-b"}
	b := newTheme("th-b", "d-2", "1", 2, 0)
	b.PreviousThemeIDs = pq.StringArray{"th-a"}
	c := NewCurriculum(Snapshot{
		Troops:      []models.Troop{troop},
		Disciplines: []models.Discipline{newDiscipline("d-1"), newDiscipline("d-2"), newDiscipline("d-3")},
		Themes:      []models.Theme{a, b, newTheme("th-c", "d-3", "1", 2, 0)},
		Teachers:    []models.Teacher{newTeacher("t-1", 100)},
		Audiences:   []models.Audience{newAudience("a-1")},
	})
	writer := &recordingWriter{}

	result, err := NewEngine(c, writer, nil, defaultConfig(), nil).Build(context.Background(), testStart, 2)
	require.NoError(t, err)
	require.Len(t, result.Cycles, 1)
	require.Len(t, writer.lessons, 1)
	assert.Equal(t, "th-c", writer.lessons[0].ThemeID)
}

func TestWeekStart(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		day := firstMonday.AddDate(0, 0, offset).Add(13 * time.Hour)
		assert.Equal(t, firstMonday, weekStart(day), "offset %d", offset)
	}
}

// largeCurriculum has three troops sharing scarce teachers and rooms, with
// prerequisite chains and mixed durations.
func largeCurriculum() (*Curriculum, Config) {
	troops := []models.Troop{
		newTroop("tr-1", "101", 0),
		newTroop("tr-2", "102", 0),
		newTroop("tr-3", "103", 1),
	}
	disciplines := []models.Discipline{newDiscipline("d-tac"), newDiscipline("d-eng"), newDiscipline("d-fire")}
	durations := []int{1, 2, 4, 6}

	themes := make([]models.Theme, 0)
	for di, discipline := range disciplines {
		prev := ""
		for n := 1; n <= 6; n++ {
			theme := newTheme(fmt.Sprintf("%s-%d", discipline.ID, n), discipline.ID, fmt.Sprintf("%d.%d", di+1, n), durations[(n+di)%len(durations)], n%3)
			theme.TeachersCount = 1 + n%2
			theme.AudiencesCount = 1
			theme.TeachersMain = pq.StringArray{fmt.Sprintf("t-%d", di+1)}
			theme.TeachersAlternative = pq.StringArray{"t-4", "t-5"}
			theme.AudienceIDs = pq.StringArray{"a-1", "a-2"}
			if prev != "" && n%2 == 0 {
				theme.PreviousThemeIDs = pq.StringArray{prev}
			}
			if di == 1 && n == 3 {
				theme.PreviousThemeIDs = append(theme.PreviousThemeIDs, "d-tac-2")
			}
			themes = append(themes, theme)
			prev = theme.ID
		}
	}

	teachers := make([]models.Teacher, 0, 5)
	for i := 1; i <= 5; i++ {
		teachers = append(teachers, newTeacher(fmt.Sprintf("t-%d", i), 20*i))
	}

	c := NewCurriculum(Snapshot{
		Troops:      troops,
		Disciplines: disciplines,
		Themes:      themes,
		Teachers:    teachers,
		Audiences:   []models.Audience{newAudience("a-1"), newAudience("a-2")},
	})
	return c, Config{LessonHours: 6, SelfEducationHours: 2, Order: Deterministic{}}
}
