package export

import (
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

// TimetableCSVRow is the flat, one-lesson-per-line CSV layout.
type TimetableCSVRow struct {
	Date         string `csv:"date"`
	Troop        string `csv:"troop"`
	StartHour    int    `csv:"start_hour"`
	Hours        int    `csv:"hours"`
	Discipline   string `csv:"discipline"`
	Theme        string `csv:"theme"`
	SelfStudy    bool   `csv:"self_study"`
	Teachers     string `csv:"teachers"`
	Audiences    string `csv:"audiences"`
	Understaffed bool   `csv:"understaffed"`
}

// CSVExporter renders Sheet lessons into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the sheet. Hours are reported 1-based.
func (e *CSVExporter) Render(sheet Sheet) ([]byte, error) {
	rows := make([]*TimetableCSVRow, 0, len(sheet.Rows))
	date := ""
	for _, row := range sheet.Rows {
		if row.Date != "" {
			date = row.Date
		}
		for _, cell := range row.Cells {
			rows = append(rows, &TimetableCSVRow{
				Date:         date,
				Troop:        row.Troop,
				StartHour:    cell.StartHour + 1,
				Hours:        cell.Hours,
				Discipline:   cell.Discipline,
				Theme:        cell.Theme,
				SelfStudy:    cell.SelfStudy,
				Teachers:     strings.Join(cell.Teachers, "; "),
				Audiences:    strings.Join(cell.Audiences, "; "),
				Understaffed: cell.Understaffed(),
			})
		}
	}

	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return []byte(out), nil
}
