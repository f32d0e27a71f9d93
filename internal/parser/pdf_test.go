package parser

import (
	"strings"
	"testing"

	pdflib "github.com/ledongthuc/pdf"
)

// glyphsFor lays out each string as monospaced 6pt glyphs starting at x on
// baseline y.
func glyphsFor(x, y float64, s string) []pdflib.Text {
	var out []pdflib.Text
	for i, r := range s {
		out = append(out, pdflib.Text{
			Font:     "F1",
			FontSize: 10,
			X:        x + float64(i)*6,
			Y:        y,
			W:        6,
			S:        string(r),
		})
	}
	return out
}

func TestWordStarts(t *testing.T) {
	glyphs := glyphsFor(72, 700, "ab cd")
	xs := wordStarts(glyphs)
	if len(xs) != 2 || xs[0] != 72 || xs[1] != 90 {
		t.Fatalf("expected word starts [72 90], got %v", xs)
	}
}

func TestWordStarts_LineChangeStartsWord(t *testing.T) {
	glyphs := append(glyphsFor(72, 700, "ab"), glyphsFor(84, 688, "cd")...)
	xs := wordStarts(glyphs)
	if len(xs) != 2 || xs[1] != 84 {
		t.Fatalf("expected a new word on the next line, got %v", xs)
	}
}

func TestLayoutText_TwoColumns(t *testing.T) {
	var glyphs []pdflib.Text
	glyphs = append(glyphs, glyphsFor(72, 700, "Left one")...)
	glyphs = append(glyphs, glyphsFor(320, 700, "Right one")...)
	glyphs = append(glyphs, glyphsFor(72, 688, "Left two")...)
	glyphs = append(glyphs, glyphsFor(320, 688, "Right two")...)

	got := layoutText(glyphs)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	for _, l := range lines {
		if !strings.HasPrefix(strings.TrimLeft(l, " "), "Left") {
			t.Errorf("expected line to start with left column, got %q", l)
		}
		if idx := strings.Index(l, "Right"); idx != 80 {
			t.Errorf("expected right column at cell 80, got %d in %q", idx, l)
		}
	}
}

func TestLayoutText_ParagraphGap(t *testing.T) {
	var glyphs []pdflib.Text
	glyphs = append(glyphs, glyphsFor(72, 700, "Heading")...)
	glyphs = append(glyphs, glyphsFor(72, 660, "Body")...)
	got := layoutText(glyphs)
	if !strings.Contains(got, "Heading\n\n") {
		t.Fatalf("expected blank line after a large vertical gap, got %q", got)
	}
}

func TestPDFParser_InvalidInputFails(t *testing.T) {
	p := &PDFParser{}
	if _, err := p.Parse(strings.NewReader("not a pdf"), "bad.pdf"); err == nil {
		t.Fatal("expected error for invalid pdf without fallback")
	}
}
