package timetable

import (
	"math/rand"
	"sort"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// OrderPolicy decides the order troops are scheduled in each week. The first
// troop of a week wins contested teachers and audiences.
type OrderPolicy interface {
	Name() string
	Order(troops []models.Troop, week int) []models.Troop
}

// Deterministic schedules troops by code every week.
type Deterministic struct{}

func (Deterministic) Name() string { return "deterministic" }

func (Deterministic) Order(troops []models.Troop, _ int) []models.Troop {
	return byCode(troops)
}

// Randomized shuffles the troop order each week. The same seed always
// yields the same sequence of orders.
type Randomized struct {
	Seed int64
}

func (Randomized) Name() string { return "randomized" }

func (r Randomized) Order(troops []models.Troop, week int) []models.Troop {
	ordered := byCode(troops)
	rng := rand.New(rand.NewSource(r.Seed + int64(week))) //nolint:gosec
	rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
	return ordered
}

func byCode(troops []models.Troop) []models.Troop {
	ordered := append([]models.Troop(nil), troops...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Code < ordered[j].Code
	})
	return ordered
}
