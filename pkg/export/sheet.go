package export

import (
	"fmt"
	"strings"
)

// Sheet is a rendered timetable: one row per troop per teaching day, one
// column per block of SlotWidth hours.
type Sheet struct {
	Title     string
	Hours     int
	SlotWidth int
	Rows      []Row
}

// Row holds the lessons of one troop on one date. Date is blank on every row
// but the first of its date group.
type Row struct {
	Date  string
	Troop string
	Cells []Cell
}

// Cell is one lesson placed on the grid.
type Cell struct {
	StartHour  int
	Hours      int
	Discipline string
	Theme      string
	Teachers   []string
	Audiences  []string
	SelfStudy  bool
}

// Understaffed marks lessons rendered in red.
func (c Cell) Understaffed() bool {
	return len(c.Teachers) == 0 || len(c.Audiences) == 0
}

// Text is the label printed in the grid cell.
func (c Cell) Text() string {
	parts := []string{c.Discipline, "T" + c.Theme}
	if c.SelfStudy {
		parts = append(parts, "(self-study)")
	}
	if len(c.Audiences) > 0 {
		parts = append(parts, "rm "+strings.Join(c.Audiences, ", "))
	}
	if len(c.Teachers) > 0 {
		parts = append(parts, strings.Join(c.Teachers, ", "))
	}
	return strings.Join(parts, " ")
}

// Columns returns the number of hour-slot columns of the sheet.
func (s Sheet) Columns() int {
	width := s.slotWidth()
	if s.Hours <= 0 {
		return 0
	}
	return (s.Hours + width - 1) / width
}

// Headers returns the full header row.
func (s Sheet) Headers() []string {
	width := s.slotWidth()
	headers := []string{"Date", "Troop"}
	for col := 0; col < s.Columns(); col++ {
		first := col*width + 1
		last := first + width - 1
		if last > s.Hours {
			last = s.Hours
		}
		if first == last {
			headers = append(headers, fmt.Sprintf("%d", first))
			continue
		}
		headers = append(headers, fmt.Sprintf("%d-%d", first, last))
	}
	return headers
}

// CellColumns returns the first and last slot column a cell covers, clamped to the sheet.
func (s Sheet) CellColumns(c Cell) (int, int) {
	width := s.slotWidth()
	hours := c.Hours
	if hours <= 0 {
		hours = 1
	}
	first := c.StartHour / width
	last := (c.StartHour + hours - 1) / width
	if max := s.Columns() - 1; last > max {
		last = max
	}
	if first > last {
		first = last
	}
	return first, last
}

func (s Sheet) slotWidth() int {
	if s.SlotWidth <= 0 {
		return 2
	}
	return s.SlotWidth
}
