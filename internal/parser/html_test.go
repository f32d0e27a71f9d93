package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_BlocksAndPages(t *testing.T) {
	input := `<html><head><title>Cholera Guide</title><style>p { color: red }</style></head>
<body>
<nav>Home | About</nav>
<h1>Chapter 1
  Cholera</h1>
<p>Cholera is an acute diarrhoeal infection.</p>
<ul><li>Watery diarrhea</li><li>Vomiting</li></ul>
<hr>
<h2>Section 2 Care</h2>
<p>Treatment of cholera includes oral rehydration salts.</p>
<script>var x = 1;</script>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Cholera Guide" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	if doc.ID != "guide.html" {
		t.Errorf("expected id guide.html, got %q", doc.ID)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(doc.Pages))
	}

	want1 := "Chapter 1 Cholera\n\nCholera is an acute diarrhoeal infection.\n\nWatery diarrhea\n\nVomiting"
	if doc.Pages[0].RawText != want1 {
		t.Errorf("page 1: expected %q, got %q", want1, doc.Pages[0].RawText)
	}
	want2 := "Section 2 Care\n\nTreatment of cholera includes oral rehydration salts."
	if doc.Pages[1].RawText != want2 {
		t.Errorf("page 2: expected %q, got %q", want2, doc.Pages[1].RawText)
	}
	for _, pg := range doc.Pages {
		if strings.Contains(pg.RawText, "Home") || strings.Contains(pg.RawText, "var x") {
			t.Errorf("expected nav and script skipped, got %q", pg.RawText)
		}
	}
}

func TestHTMLParser_FilenameTitleFallback(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<p>Body only.</p>"), "notes.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	if len(doc.Pages) != 1 || doc.Pages[0].RawText != "Body only." {
		t.Fatalf("expected single page with body text, got %+v", doc.Pages)
	}
}
