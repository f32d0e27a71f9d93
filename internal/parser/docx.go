package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Each paragraph becomes a paragraph of page
// text; explicit page breaks start a new page.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docdialog-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	parsed, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := newDocument(filename)
	var page, para strings.Builder

	flushPara := func() {
		if t := strings.TrimSpace(para.String()); t != "" {
			if page.Len() > 0 {
				page.WriteString("\n\n")
			}
			page.WriteString(t)
		}
		para.Reset()
	}
	flushPage := func() {
		flushPara()
		if t := strings.TrimSpace(page.String()); t != "" {
			doc.AddPage(t, document.LayoutSingle)
		}
		page.Reset()
	}

	for _, item := range parsed.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		for _, child := range p.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				switch x := rc.(type) {
				case *docx.Text:
					para.WriteString(x.Text)
				case *docx.Tab:
					para.WriteByte('\t')
				case *docx.BarterRabbet:
					if x.Type == "page" {
						flushPage()
					} else {
						para.WriteByte('\n')
					}
				}
			}
		}
		flushPara()
	}
	flushPage()

	return doc, nil
}
