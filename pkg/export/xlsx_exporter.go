package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Timetable"

// XLSXExporter renders a Sheet into an Excel workbook. Multi-hour lessons are
// merged across their slot columns; understaffed lessons use a red font.
type XLSXExporter struct{}

// NewXLSXExporter builds an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// Render produces workbook bytes for the sheet.
func (e *XLSXExporter) Render(sheet Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	normalStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "000000"},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}
	alertStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Color: "FF0000"},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return nil, fmt.Errorf("create alert style: %w", err)
	}

	for i, header := range sheet.Headers() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(xlsxSheetName, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
		if err := f.SetCellStyle(xlsxSheetName, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header: %w", err)
		}
	}

	rowIdx := 2
	for i, row := range sheet.Rows {
		if i > 0 && row.Date != "" {
			rowIdx++
		}
		if row.Date != "" {
			cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
			if err := f.SetCellValue(xlsxSheetName, cell, row.Date); err != nil {
				return nil, fmt.Errorf("write date: %w", err)
			}
		}
		troopCell, _ := excelize.CoordinatesToCellName(2, rowIdx)
		if err := f.SetCellValue(xlsxSheetName, troopCell, row.Troop); err != nil {
			return nil, fmt.Errorf("write troop: %w", err)
		}

		for _, lesson := range row.Cells {
			first, last := sheet.CellColumns(lesson)
			start, _ := excelize.CoordinatesToCellName(first+3, rowIdx)
			end, _ := excelize.CoordinatesToCellName(last+3, rowIdx)

			if err := f.SetCellValue(xlsxSheetName, start, lesson.Text()); err != nil {
				return nil, fmt.Errorf("write lesson: %w", err)
			}
			if last > first {
				if err := f.MergeCell(xlsxSheetName, start, end); err != nil {
					return nil, fmt.Errorf("merge lesson cells: %w", err)
				}
			}
			style := normalStyle
			if lesson.Understaffed() {
				style = alertStyle
			}
			if err := f.SetCellStyle(xlsxSheetName, start, end, style); err != nil {
				return nil, fmt.Errorf("style lesson: %w", err)
			}
		}
		rowIdx++
	}

	if err := f.SetColWidth(xlsxSheetName, "C", columnName(sheet.Columns()+2), 32); err != nil {
		return nil, fmt.Errorf("size columns: %w", err)
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func columnName(col int) string {
	if col < 1 {
		col = 1
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "A"
	}
	return name
}
