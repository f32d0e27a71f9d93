package structure

import (
	"testing"

	"github.com/dgallion1/docdialog/internal/document"
)

func docWithPages(texts ...string) *document.Document {
	d := &document.Document{ID: "guide.pdf"}
	for _, t := range texts {
		p := d.AddPage(t, document.LayoutSingle)
		p.CleanedText = t
	}
	return d
}

func TestAnnotateDocument_InheritsAcrossPages(t *testing.T) {
	d := docWithPages(
		"Chapter 1 Introduction\n\nCholera is an acute diarrhoeal infection.",
		"No headings on this page.",
	)
	AnnotateDocument(d)

	for i, p := range d.Pages {
		if p.Chapter != "Chapter 1 Introduction" {
			t.Errorf("page %d: expected chapter inherited, got %q", i+1, p.Chapter)
		}
		if p.Section != "" || p.Subsection != "" {
			t.Errorf("page %d: expected empty section/subsection, got %q/%q", i+1, p.Section, p.Subsection)
		}
	}
}

func TestAnnotateDocument_ChapterClearsLowerLevels(t *testing.T) {
	d := docWithPages(
		"Chapter 1 Basics\n\nSection 1.2 Transmission\n\n1.2.1 Water sources",
		"Chapter 2 Care",
	)
	AnnotateDocument(d)

	p1 := d.Pages[0]
	if p1.Section != "Section 1.2 Transmission" || p1.Subsection != "1.2.1 Water sources" {
		t.Fatalf("expected section and subsection on page 1, got %q / %q", p1.Section, p1.Subsection)
	}
	p2 := d.Pages[1]
	if p2.Chapter != "Chapter 2 Care" {
		t.Fatalf("expected chapter 2, got %q", p2.Chapter)
	}
	if p2.Section != "" || p2.Subsection != "" {
		t.Fatalf("expected section and subsection cleared, got %q / %q", p2.Section, p2.Subsection)
	}
}

func TestAnnotateDocument_SectionClearsSubsection(t *testing.T) {
	d := docWithPages("1.1 Early signs\n\nSECTION 2: Management")
	AnnotateDocument(d)

	p := d.Pages[0]
	if p.Section != "SECTION 2: Management" {
		t.Fatalf("expected case-insensitive section match, got %q", p.Section)
	}
	if p.Subsection != "" {
		t.Fatalf("expected subsection cleared, got %q", p.Subsection)
	}
}

func TestAnnotateDocument_NotHeadings(t *testing.T) {
	tests := []string{
		"Chapters of history are long.",
		"1 Introduction",
		"1.2",
		"The chapter 3 note is inline.",
	}
	for _, text := range tests {
		d := docWithPages(text)
		AnnotateDocument(d)
		p := d.Pages[0]
		if p.Chapter != "" || p.Section != "" || p.Subsection != "" {
			t.Errorf("expected no headings for %q, got %q/%q/%q", text, p.Chapter, p.Section, p.Subsection)
		}
	}
}

func TestAnnotate_DocumentsStartEmpty(t *testing.T) {
	a := docWithPages("Chapter 4 Outbreaks")
	b := docWithPages("Plain text only.")
	Annotate([]*document.Document{a, b})

	if a.Pages[0].Chapter != "Chapter 4 Outbreaks" {
		t.Fatalf("expected chapter on first document, got %q", a.Pages[0].Chapter)
	}
	if b.Pages[0].Chapter != "" {
		t.Fatalf("expected second document to start with empty context, got %q", b.Pages[0].Chapter)
	}
}
