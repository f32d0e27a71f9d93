// Package normalize turns raw extracted page text into clean text.
package normalize

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
)

var (
	hyphenBreakRe = regexp.MustCompile(`([\p{L}\p{N}_])-\s*\n\s*([\p{L}\p{N}_])`)
	newlineRunRe  = regexp.MustCompile(`\n{2,}`)
	spaceRunRe    = regexp.MustCompile(`\s{2,}`)
	numberLineRe  = regexp.MustCompile(`(?m)^[ \t]*\d+[ \t]*$`)
)

// Clean normalizes the raw text of one page. Multi-column pages are expected in
// layout-preserved form and are reflowed into column order first.
//
// Steps, in order: de-hyphenate line breaks, join single newlines, canonicalize
// paragraph breaks to "\n\n", collapse every run of two or more whitespace
// characters (paragraph breaks included) to one space, drop number-only lines,
// trim.
func Clean(raw string, hint document.Layout) string {
	text := Sanitize(raw)
	if text == "" {
		return ""
	}
	if hint == document.LayoutMultiColumn {
		text = Reflow(text)
	}

	text = hyphenBreakRe.ReplaceAllString(text, "${1}${2}")
	text = joinSingleNewlines(text)
	text = newlineRunRe.ReplaceAllString(text, "\n\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = numberLineRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Sanitize removes NUL bytes and non-printing control characters that some
// PDF extractors emit, and normalizes line endings to "\n".
func Sanitize(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for _, ch := range s {
		if ch == '\n' || ch == '\t' {
			b.WriteRune(ch)
			continue
		}
		if ch < 0x20 || ch == 0x7f {
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// joinSingleNewlines replaces every newline that is not adjacent to another
// newline with a space.
func joinSingleNewlines(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	b := []byte(s)
	out := make([]byte, len(b))
	for i, c := range b {
		out[i] = c
		if c != '\n' {
			continue
		}
		prevNL := i > 0 && b[i-1] == '\n'
		nextNL := i+1 < len(b) && b[i+1] == '\n'
		if !prevNL && !nextNL {
			out[i] = ' '
		}
	}
	return string(out)
}
