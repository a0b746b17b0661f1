package timetable

import (
	"sort"

	"github.com/noah-isme/troop-timetable-api/internal/models"
)

// PrerequisiteCycles returns every cycle in the previous-theme graph as a list
// of theme ids. Themes on a cycle can never become eligible. Prerequisites
// pointing at unknown themes are ignored here.
func PrerequisiteCycles(themes []models.Theme) [][]string {
	edges := make(map[string][]string, len(themes))
	ids := make([]string, 0, len(themes))
	for _, theme := range themes {
		ids = append(ids, theme.ID)
		edges[theme.ID] = append([]string(nil), theme.PreviousThemeIDs...)
	}
	sort.Strings(ids)

	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(ids))
	stack := make([]string, 0)
	cycles := make([][]string, 0)

	var visit func(id string)
	visit = func(id string) {
		state[id] = inProgress
		stack = append(stack, id)
		for _, next := range edges[id] {
			if _, known := edges[next]; !known {
				continue
			}
			switch state[next] {
			case unvisited:
				visit(next)
			case inProgress:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == next {
						cycles = append(cycles, append([]string(nil), stack[i:]...))
						break
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
	}

	for _, id := range ids {
		if state[id] == unvisited {
			visit(id)
		}
	}
	return cycles
}
