package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// TimetableEntry is one block in the weekly timetable grid.
type TimetableEntry struct {
	Day      int
	Start    string
	End      string
	Label    string
	Location string
}

// Timetable is a week of entries rendered one column per weekday.
type Timetable struct {
	Title    string
	Subtitle string
	DayNames [7]string
	Entries  []TimetableEntry
}

// PDFExporter renders transcripts and timetables with gofpdf.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType returns the MIME type of rendered output.
func (e *PDFExporter) ContentType() string {
	return "application/pdf"
}

// Render creates a portrait table document with an optional title and footer lines.
func (e *PDFExporter) Render(data Dataset, title string, footer ...string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	colWidth := 190.0 / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(footer) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "I", 9)
		for _, line := range footer {
			pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
		}
	}

	return output(pdf)
}

// RenderTimetable draws a landscape weekly grid. Entries keep their given order within a day.
func (e *PDFExporter) RenderTimetable(t Timetable) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if t.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(t.Title), "", 1, "C", false, 0, "")
	}
	if t.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(t.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	columns := make([][]TimetableEntry, 7)
	for _, entry := range t.Entries {
		if entry.Day < 0 || entry.Day > 6 {
			continue
		}
		columns[entry.Day] = append(columns[entry.Day], entry)
	}
	rows := 0
	for day := range columns {
		if len(columns[day]) > rows {
			rows = len(columns[day])
		}
	}

	const colWidth = 277.0 / 7
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for day := 0; day < 7; day++ {
		pdf.CellFormat(colWidth, 8, tr(t.DayNames[day]), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for r := 0; r < rows; r++ {
		for line := 0; line < 3; line++ {
			for day := 0; day < 7; day++ {
				text := ""
				border := "LR"
				if line == 2 {
					border = "LRB"
				}
				if r < len(columns[day]) {
					entry := columns[day][r]
					switch line {
					case 0:
						text = entry.Label
					case 1:
						text = entry.Start + " - " + entry.End
					case 2:
						text = entry.Location
					}
				}
				pdf.CellFormat(colWidth, 5, tr(text), border, 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	if rows == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 10, "No classes scheduled", "", 1, "C", false, 0, "")
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
