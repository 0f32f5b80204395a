package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section is a titled table rendered on its own page.
type Section struct {
	Title string
	Data  Dataset
}

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct {
	orientation string
}

// NewPDFExporter constructs a portrait PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{orientation: "P"}
}

// NewLandscapePDFExporter suits wide timetables.
func NewLandscapePDFExporter() *PDFExporter {
	return &PDFExporter{orientation: "L"}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.RenderSections(title, []Section{{Data: data}})
}

// RenderSections writes one page per section under a shared document title.
func (e *PDFExporter) RenderSections(title string, sections []Section) ([]byte, error) {
	if len(sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}
	for _, section := range sections {
		if len(section.Data.Headers) == 0 {
			return nil, fmt.Errorf("pdf requires at least one header")
		}
	}

	pdf := gofpdf.New(e.orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageWidth - left - right

	for _, section := range sections {
		pdf.AddPage()
		if title != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		}
		if section.Title != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, section.Title, "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
		writeTable(pdf, section.Data, usable)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset, width float64) {
	colWidth := width / float64(len(data.Headers))

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	if len(data.Rows) == 0 {
		pdf.CellFormat(width, 7, "No sessions", "1", 1, "C", false, 0, "")
		return
	}
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
