package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Sheet into a landscape tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with the sheet title and grid.
func (e *PDFExporter) Render(sheet Sheet) ([]byte, error) {
	headers := sheet.Headers()
	if len(headers) <= 2 {
		return nil, fmt.Errorf("pdf requires at least one hour column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if sheet.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(tr(sheet.Title)), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	const dateWidth, troopWidth = 22.0, 22.0
	slotWidth := (277.0 - dateWidth - troopWidth) / float64(sheet.Columns())

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(dateWidth, 8, headers[0], "1", 0, "C", false, 0, "")
	pdf.CellFormat(troopWidth, 8, headers[1], "1", 0, "C", false, 0, "")
	for _, header := range headers[2:] {
		pdf.CellFormat(slotWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 7)
	for _, row := range sheet.Rows {
		pdf.CellFormat(dateWidth, 10, tr(row.Date), "1", 0, "", false, 0, "")
		pdf.CellFormat(troopWidth, 10, tr(row.Troop), "1", 0, "", false, 0, "")

		col := 0
		for _, cell := range row.Cells {
			first, last := sheet.CellColumns(cell)
			if first < col {
				continue
			}
			for ; col < first; col++ {
				pdf.CellFormat(slotWidth, 10, "", "1", 0, "", false, 0, "")
			}
			if cell.Understaffed() {
				pdf.SetTextColor(200, 0, 0)
			}
			width := slotWidth * float64(last-first+1)
			pdf.CellFormat(width, 10, truncate(pdf, tr(cell.Text()), width), "1", 0, "", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
			col = last + 1
		}
		for ; col < sheet.Columns(); col++ {
			pdf.CellFormat(slotWidth, 10, "", "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(pdf *gofpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
