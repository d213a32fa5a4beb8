package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Document describes a single report prepared for PDF rendering: a title,
// key/value metadata lines, and the extracted body text.
type Document struct {
	Title string
	Meta  []MetaLine
	Body  string
}

// MetaLine is one labelled metadata entry under the document title.
type MetaLine struct {
	Label string
	Value string
}

// PDFExporter renders a Document into a printable PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with the title, metadata block, and wrapped body text.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.MultiCell(0, 9, tr(doc.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	for _, line := range doc.Meta {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(30, 6, line.Label, "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 6, tr(line.Value), "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetDrawColor(180, 180, 180)
	left, y := 15.0, pdf.GetY()
	pdf.Line(left, y, 195, y)
	pdf.Ln(4)

	pdf.SetFont("Courier", "", 9)
	pdf.MultiCell(0, 5, tr(doc.Body), "", "L", false)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
