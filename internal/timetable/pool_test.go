package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolDrainsPrimaryBeforeFallback(t *testing.T) {
	pool := NewPool([]string{"main-1", "main-2"}, []string{"alt-1", "alt-2"})

	got, ok := pool.Acquire(3)
	assert.True(t, ok)
	assert.Equal(t, []string{"main-1", "main-2", "alt-1"}, got)
	assert.Equal(t, 1, pool.Len())

	got, ok = pool.Acquire(2)
	assert.False(t, ok)
	assert.Equal(t, []string{"alt-2"}, got)
	assert.Equal(t, 0, pool.Len())
}

func TestPoolZeroCountIsSatisfied(t *testing.T) {
	pool := NewPool[string](nil, nil)
	got, ok := pool.Acquire(0)
	assert.True(t, ok)
	assert.Empty(t, got)

	got, ok = pool.Acquire(1)
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestPoolDoesNotAliasInput(t *testing.T) {
	primary := []int{1, 2}
	pool := NewPool(primary, nil)
	_, _ = pool.Acquire(2)
	assert.Equal(t, []int{1, 2}, primary)
}
