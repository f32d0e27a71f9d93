package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
)

// TextParser handles plain text files. Form feeds separate pages, matching
// the output of pdftotext and most print-to-text tools.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := newDocument(filename)
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}

	pages := strings.Split(text, "\f")
	// A trailing form feed does not open another page.
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	for _, page := range pages {
		doc.AddPage(page, document.LayoutSingle)
	}
	return doc, nil
}
