package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Every block becomes
// a paragraph of page text, headings on their own line so the annotator sees
// them. A thematic break (---) starts a new page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	doc := newDocument(filename)
	var page bytes.Buffer

	flushPage := func() {
		if t := strings.TrimSpace(page.String()); t != "" {
			doc.AddPage(t, document.LayoutSingle)
		}
		page.Reset()
	}
	appendBlock := func(t string) {
		if t == "" {
			return
		}
		if page.Len() > 0 {
			page.WriteString("\n\n")
		}
		page.WriteString(t)
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.ThematicBreak:
			flushPage()
		case *ast.Heading:
			appendBlock(strings.TrimSpace(string(node.Text(src))))
		default:
			appendBlock(extractText(n, src))
		}
	}
	flushPage()

	return doc, nil
}

// extractText gets the text content of a goldmark AST node. Code and raw
// HTML blocks contribute their lines; everything else its inline text.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			if c.Type() == ast.TypeBlock && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
