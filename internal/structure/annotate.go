// Package structure tags cleaned pages with the chapter, section and
// subsection headings in force on them.
package structure

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
)

var (
	chapterRe    = regexp.MustCompile(`(?i)^chapter\s+\d+[:.\s-]*`)
	sectionRe    = regexp.MustCompile(`(?i)^section\s+\d+(\.\d+)*[:.\s-]*`)
	subsectionRe = regexp.MustCompile(`^\d+(\.\d+)+\s+.+`)
)

// Context is the heading state carried from page to page within one document.
// The zero value is the empty context a document starts with.
type Context struct {
	Chapter    string
	Section    string
	Subsection string
}

// Scan updates the context from the lines of one page. A chapter heading
// clears section and subsection; a section heading clears subsection.
func (c *Context) Scan(text string) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case chapterRe.MatchString(line):
			c.Chapter = line
			c.Section = ""
			c.Subsection = ""
		case sectionRe.MatchString(line):
			c.Section = line
			c.Subsection = ""
		case subsectionRe.MatchString(line):
			c.Subsection = line
		}
	}
}

// Stamp copies the current context onto p.
func (c *Context) Stamp(p *document.Page) {
	p.Chapter = c.Chapter
	p.Section = c.Section
	p.Subsection = c.Subsection
}

// AnnotateDocument scans the cleaned text of each page in page order and
// stamps every page with the context in force after scanning it. Pages
// without headings inherit the previous page's context.
func AnnotateDocument(doc *document.Document) {
	var ctx Context
	for _, p := range doc.Pages {
		ctx.Scan(p.CleanedText)
		ctx.Stamp(p)
	}
}

// Annotate annotates each document independently; context never crosses a
// document boundary.
func Annotate(docs []*document.Document) {
	for _, d := range docs {
		AnnotateDocument(d)
	}
}
