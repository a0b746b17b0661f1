package timetable

// Pool is a two-tier resource pool. Acquire drains the primary tier before
// touching the fallback tier.
type Pool[T any] struct {
	primary  []T
	fallback []T
}

// NewPool builds a pool from ordered tiers.
func NewPool[T any](primary, fallback []T) *Pool[T] {
	return &Pool[T]{
		primary:  append([]T(nil), primary...),
		fallback: append([]T(nil), fallback...),
	}
}

// Len returns the number of resources left in both tiers.
func (p *Pool[T]) Len() int {
	return len(p.primary) + len(p.fallback)
}

// Acquire takes up to count resources. satisfied is false when the pool
// could not provide count of them; whatever was available is still returned.
func (p *Pool[T]) Acquire(count int) (acquired []T, satisfied bool) {
	if count <= 0 {
		return []T{}, true
	}
	acquired = make([]T, 0, count)
	for len(acquired) < count && len(p.primary) > 0 {
		acquired = append(acquired, p.primary[0])
		p.primary = p.primary[1:]
	}
	for len(acquired) < count && len(p.fallback) > 0 {
		acquired = append(acquired, p.fallback[0])
		p.fallback = p.fallback[1:]
	}
	return acquired, len(acquired) == count
}
