package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pdfFont       = "Arial"
	pdfFontSize   = 9.0
	pdfLineHeight = 5.0
	pdfPageWidth  = 190.0 // A4 minus 10mm margins
)

// PDFRenderer converts report Markdown into a PDF document
type PDFRenderer struct {
	markdown goldmark.Markdown
	logger   arbor.ILogger
}

// NewPDFRenderer creates a PDF renderer
func NewPDFRenderer(logger arbor.ILogger) *PDFRenderer {
	return &PDFRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify)),
		logger:   logger,
	}
}

// Render converts markdown to PDF bytes. Core fonts are Latin-1, so text
// outside cp1252 degrades; translated reports stay Markdown only.
func (p *PDFRenderer) Render(markdown, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.SetCreator("MGP", true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(pdfFont, "I", 7)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 5, fmt.Sprintf("%s | page %d", title, pdf.PageNo()), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	source := []byte(markdown)
	doc := p.markdown.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	p.logger.Debug().Str("title", title).Int("pdf_size", buf.Len()).Msg("PDF rendered")
	return buf.Bytes(), nil
}

type pdfWriter struct {
	pdf       *fpdf.Fpdf
	source    []byte
	tr        func(string) string
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (w *pdfWriter) setFont() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	size := w.size
	if size == 0 {
		size = pdfFontSize
	}
	w.pdf.SetFont(pdfFont, style, size)
}

func (w *pdfWriter) write(s string) {
	w.pdf.Write(pdfLineHeight, w.tr(s))
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.pdf.Ln(4)
			w.size = map[int]float64{1: 14, 2: 12, 3: 10.5}[node.Level]
			w.bold = true
		} else {
			w.size, w.bold = 0, false
			w.pdf.Ln(pdfLineHeight + 1)
		}
		w.setFont()

	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(pdfLineHeight + 1)
		}

	case *ast.Text:
		if entering {
			w.write(string(node.Segment.Value(w.source)))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.pdf.Ln(pdfLineHeight)
			}
		}

	case *ast.String:
		if entering {
			w.write(string(node.Value))
		}

	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.setFont()

	case *ast.Link:
		if entering {
			w.link(string(node.Text(w.source)), string(node.Destination))
			return ast.WalkSkipChildren, nil
		}

	case *ast.AutoLink:
		if entering {
			url := string(node.URL(w.source))
			w.link(url, url)
			return ast.WalkSkipChildren, nil
		}

	case *ast.List:
		if entering {
			w.listLevel++
		} else {
			w.listLevel--
			if w.listLevel == 0 {
				w.pdf.Ln(2)
			}
		}

	case *ast.ListItem:
		if entering {
			w.pdf.SetX(10 + float64(w.listLevel)*4)
			w.write("- ")
		}

	case *ast.TextBlock:
		if !entering {
			w.pdf.Ln(pdfLineHeight)
		}

	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(2)
			w.pdf.Line(10, w.pdf.GetY(), 200, w.pdf.GetY())
			w.pdf.Ln(3)
		}

	case *extast.Table:
		if entering {
			w.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) link(label, url string) {
	w.pdf.SetTextColor(20, 80, 160)
	w.pdf.WriteLinkString(pdfLineHeight, w.tr(label), url)
	w.pdf.SetTextColor(0, 0, 0)
}

func (w *pdfWriter) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		var row []string
		for c := child.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*extast.TableCell); ok {
				row = append(row, w.tr(strings.TrimSpace(string(c.Text(w.source)))))
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return
	}

	cols := len(rows[0])
	widths := w.columnWidths(rows, cols)
	const lh = 4.0

	w.pdf.Ln(1)
	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
			w.pdf.SetFillColor(230, 230, 230)
		}
		w.pdf.SetFont(pdfFont, style, 8)

		lines := 1
		for j := 0; j < cols && j < len(row); j++ {
			if n := len(w.pdf.SplitText(row[j], widths[j]-2)); n > lines {
				lines = n
			}
		}
		height := float64(lines)*lh + 2

		_, pageHeight := w.pdf.GetPageSize()
		if w.pdf.GetY()+height > pageHeight-15 {
			w.pdf.AddPage()
		}

		x, y := w.pdf.GetX(), w.pdf.GetY()
		for j := 0; j < cols; j++ {
			value := ""
			if j < len(row) {
				value = row[j]
			}
			border := "D"
			if i == 0 {
				border = "FD"
			}
			w.pdf.Rect(x, y, widths[j], height, border)
			w.pdf.SetXY(x+1, y+1)
			w.pdf.MultiCell(widths[j]-2, lh, value, "", "L", false)
			x += widths[j]
		}
		w.pdf.SetXY(10, y+height)
	}
	w.pdf.Ln(3)
	w.setFont()
}

// columnWidths sizes columns by content, capped and scaled to the page
func (w *pdfWriter) columnWidths(rows [][]string, cols int) []float64 {
	widths := make([]float64, cols)
	w.pdf.SetFont(pdfFont, "B", 8)
	for _, row := range rows {
		for j := 0; j < cols && j < len(row); j++ {
			if cw := w.pdf.GetStringWidth(row[j]) + 4; cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	total := 0.0
	for j := range widths {
		if widths[j] < 14 {
			widths[j] = 14
		}
		if widths[j] > pdfPageWidth*0.6 {
			widths[j] = pdfPageWidth * 0.6
		}
		total += widths[j]
	}
	if total > pdfPageWidth {
		for j := range widths {
			widths[j] *= pdfPageWidth / total
		}
	}
	return widths
}
