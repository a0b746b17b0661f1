package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/noah-isme/troop-timetable-api/internal/models"
	"github.com/noah-isme/troop-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/troop-timetable-api/pkg/errors"
	"github.com/noah-isme/troop-timetable-api/pkg/jobs"
)

var monday = time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC)

type curriculumStub struct {
	snapshot timetable.Snapshot
	err      error
	loads    int
}

func (s *curriculumStub) Load(context.Context) (timetable.Snapshot, error) {
	s.loads++
	return s.snapshot, s.err
}

func (s *curriculumStub) Troop(_ context.Context, id string) (*models.Troop, error) {
	for _, troop := range s.snapshot.Troops {
		if troop.ID == id {
			t := troop
			return &t, nil
		}
	}
	return nil, sql.ErrNoRows
}

type specialtyStub struct{}

func (specialtyStub) FindByID(_ context.Context, id string) (*models.Specialty, error) {
	if id != "sp-1" {
		return nil, sql.ErrNoRows
	}
	return &models.Specialty{ID: id, Code: "ENG"}, nil
}

type lessonStoreStub struct {
	mu        sync.Mutex
	lessons   []models.Lesson
	deleted   int
	createErr error
	lists     int
}

func (s *lessonStoreStub) CreateLesson(_ context.Context, lesson *models.Lesson) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lessons = append(s.lessons, *lesson)
	return nil
}

func (s *lessonStoreStub) DeleteAll(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.lessons)
	s.lessons = nil
	s.deleted += n
	return int64(n), nil
}

func (s *lessonStoreStub) List(_ context.Context, filter models.LessonFilter) ([]models.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	result := make([]models.Lesson, 0)
	for _, lesson := range s.lessons {
		if filter.TroopID != "" && lesson.TroopID != filter.TroopID {
			continue
		}
		if filter.DateFrom != nil && lesson.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && lesson.Date.After(*filter.DateTo) {
			continue
		}
		result = append(result, lesson)
	}
	return result, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type cacheStub struct {
	entries map[string][]byte
	flushes int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: make(map[string][]byte)}
}

func (c *cacheStub) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheStub) Flush(context.Context) error {
	c.flushes++
	c.entries = make(map[string][]byte)
	return nil
}

var errWriteFailed = errors.New("write failed")

func theme(id, disciplineID, number string, term, duration, selfEd int) models.Theme {
	return models.Theme{
		ID:                 id,
		Number:             number,
		Term:               term,
		Duration:           duration,
		SelfEducationHours: selfEd,
		AudiencesCount:     1,
		TeachersCount:      1,
		DisciplineID:       disciplineID,
		TeachersMain:       pq.StringArray{"t-1"},
		AudienceIDs:        pq.StringArray{"a-1"},
		SpecialtyIDs:       pq.StringArray{"sp-1"},
	}
}

// smallSnapshot has one troop taught on Mondays with two disciplines at term 1
// and a third discipline only taught at term 2.
func smallSnapshot() timetable.Snapshot {
	return timetable.Snapshot{
		Troops: []models.Troop{{ID: "tr-1", Code: "101", Day: 0, Term: 1, SpecialtyID: "sp-1"}},
		Disciplines: []models.Discipline{
			{ID: "d-1", FullName: "Tactics", ShortName: "TAC"},
			{ID: "d-2", FullName: "Engineering", ShortName: "ENG"},
			{ID: "d-3", FullName: "Signals", ShortName: "SIG"},
		},
		Themes: []models.Theme{
			theme("th-1", "d-1", "1.1", 1, 2, 1),
			theme("th-2", "d-2", "1.1", 1, 2, 0),
			theme("th-3", "d-3", "1.1", 2, 4, 2),
		},
		Teachers:  []models.Teacher{{ID: "t-1", Name: "Ivanov", MilitaryRank: "Major", WorkHoursLimit: 10}, {ID: "t-2", Name: "Petrov", WorkHoursLimit: 0}},
		Audiences: []models.Audience{{ID: "a-1", Location: "101"}},
	}
}
