package parser

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
	"github.com/dgallion1/docdialog/internal/normalize"
	pdflib "github.com/ledongthuc/pdf"
)

// Layout rendering: one character cell per layoutCharWidth points, and a
// blank line wherever the baseline drops by more than paragraphGap font
// sizes.
const (
	layoutCharWidth = 4.0
	lineTolerance   = 2.0
	paragraphGap    = 1.8
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available.
//
// Each page is classified by the horizontal spread of its word start
// positions. Single-column pages use the library's plain text; multi-column
// pages are rendered with their glyph positions preserved so the normalizer
// can reflow the columns.
type PDFParser struct {
	FallbackPdftotext bool
	ColumnGap         float64
	Logger            *slog.Logger
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docdialog-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("document", filename)

	doc := newDocument(filename)
	err = p.extractPages(tmpPath, doc, log)
	if err != nil && p.FallbackPdftotext {
		log.Warn("pdf library failed, falling back to pdftotext", "error", err)
		doc.Pages = nil
		err = extractPdftotext(tmpPath, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return doc, nil
}

func (p *PDFParser) extractPages(path string, doc *document.Document, log *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		text, layout, err := p.pageText(reader.Page(i))
		if err != nil {
			log.Warn("unreadable page", "page", i, "error", err)
			text = ""
		}
		doc.AddPage(text, layout)
	}
	return nil
}

// pageText classifies one page and returns its text in the matching form.
// Pages the library cannot decode yield an error and single-column layout.
func (p *PDFParser) pageText(page pdflib.Page) (text string, layout document.Layout, err error) {
	layout = document.LayoutSingle
	defer func() {
		if r := recover(); r != nil {
			text, layout, err = "", document.LayoutSingle, fmt.Errorf("page panic: %v", r)
		}
	}()

	if page.V.IsNull() {
		return "", layout, nil
	}

	glyphs := pageGlyphs(page)
	if normalize.IsMultiColumn(wordStarts(glyphs), p.ColumnGap) {
		return layoutText(glyphs), document.LayoutMultiColumn, nil
	}

	text, err = page.GetPlainText(nil)
	return text, layout, err
}

// pageGlyphs returns the positioned glyphs of a page, or nil when the
// content stream cannot be interpreted.
func pageGlyphs(page pdflib.Page) (glyphs []pdflib.Text) {
	defer func() {
		if recover() != nil {
			glyphs = nil
		}
	}()
	return page.Content().Text
}

// wordStarts returns the x coordinate of the first glyph of every word. A
// word ends at a space glyph, a baseline change, or a horizontal jump wider
// than a quarter of the font size.
func wordStarts(glyphs []pdflib.Text) []float64 {
	var xs []float64
	var prev *pdflib.Text
	for i := range glyphs {
		g := &glyphs[i]
		if strings.TrimSpace(g.S) == "" {
			prev = nil
			continue
		}
		if prev == nil || math.Abs(g.Y-prev.Y) > lineTolerance || g.X > prev.X+prev.W+math.Max(prev.FontSize/4, 1) {
			xs = append(xs, g.X)
		}
		prev = g
	}
	return xs
}

// layoutText renders glyphs as monospaced lines that keep their horizontal
// position, similar to pdftotext -layout.
func layoutText(glyphs []pdflib.Text) string {
	if len(glyphs) == 0 {
		return ""
	}
	sorted := make([]pdflib.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var lines [][]pdflib.Text
	for _, g := range sorted {
		n := len(lines)
		if n > 0 && math.Abs(lines[n-1][0].Y-g.Y) <= lineTolerance {
			lines[n-1] = append(lines[n-1], g)
			continue
		}
		lines = append(lines, []pdflib.Text{g})
	}

	var out strings.Builder
	for i, line := range lines {
		sort.SliceStable(line, func(a, b int) bool { return line[a].X < line[b].X })
		if i > 0 {
			out.WriteByte('\n')
			prev := lines[i-1][0]
			size := prev.FontSize
			if size <= 0 {
				size = 10
			}
			if prev.Y-line[0].Y > paragraphGap*size {
				out.WriteByte('\n')
			}
		}

		var row []rune
		prevEnd := math.Inf(-1)
		for _, g := range line {
			// Glyphs that touch the previous one continue the same run;
			// only real gaps are mapped onto the character grid.
			if g.X-prevEnd > math.Max(g.FontSize/4, 1) {
				col := int(g.X / layoutCharWidth)
				if col <= len(row) && len(row) > 0 {
					col = len(row) + 1
				}
				for len(row) < col {
					row = append(row, ' ')
				}
			}
			row = append(row, []rune(g.S)...)
			prevEnd = g.X + g.W
		}
		out.WriteString(strings.TrimRight(string(row), " "))
	}
	return out.String()
}

// extractPdftotext splits pdftotext output on form feeds, one page each.
func extractPdftotext(path string, doc *document.Document) error {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("pdftotext: %w", err)
	}
	pages := strings.Split(string(out), "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	for _, page := range pages {
		doc.AddPage(page, document.LayoutSingle)
	}
	return nil
}
