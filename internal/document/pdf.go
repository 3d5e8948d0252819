package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Renderer lays out plain structured text into a document.
type Renderer interface {
	Render(w io.Writer, text string) error
}

// PDFRenderer renders headings ("#" lines), bullets ("-" or "*" lines) and plain
// paragraphs onto A4 pages. Input is expected to be ASCII; see ASCII.
type PDFRenderer struct {
	FontFamily string
	FontSize   float64
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{FontFamily: "Arial", FontSize: 12}
}

const (
	lineHeight = 10
	pageMargin = 15
)

func (r *PDFRenderer) Render(w io.Writer, text string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	pdf.SetFont(r.FontFamily, "", r.FontSize)

	for _, line := range strings.Split(text, "\n") {
		r.writeLine(pdf, line)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout pdf: %w", err)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}

	return nil
}

func (r *PDFRenderer) writeLine(pdf *fpdf.Fpdf, line string) {
	line = strings.TrimRight(strings.ReplaceAll(line, "**", ""), " \t")
	trimmed := strings.TrimSpace(line)

	switch {
	case trimmed == "":
		pdf.Ln(lineHeight / 2)
	case strings.HasPrefix(trimmed, "#"):
		level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
		size := r.FontSize + float64(max(0, 4-level))*2
		pdf.SetFont(r.FontFamily, "B", size)
		pdf.MultiCell(0, lineHeight, strings.TrimSpace(strings.TrimLeft(trimmed, "#")), "", "", false)
		pdf.SetFont(r.FontFamily, "", r.FontSize)
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		indent := strings.Repeat(" ", len(line)-len(strings.TrimLeft(line, " \t")))
		pdf.MultiCell(0, lineHeight, indent+"  - "+strings.TrimSpace(trimmed[2:]), "", "", false)
	default:
		pdf.MultiCell(0, lineHeight, line, "", "", false)
	}
}
