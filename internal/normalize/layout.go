package normalize

import (
	"sort"
	"strings"
)

// DefaultColumnGap is the horizontal distance, in PDF points, between two
// consecutive word start positions above which a page is treated as
// multi-column.
const DefaultColumnGap = 100.0

// IsMultiColumn inspects the horizontal start positions of the words on a page.
// It reports true when two consecutive distinct positions differ by more than
// threshold. No positions means single column.
func IsMultiColumn(xs []float64, threshold float64) bool {
	if len(xs) < 2 {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultColumnGap
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > threshold {
			return true
		}
	}
	return false
}

// Gutter tolerance: a character column still counts as blank when at most
// one line in gutterNoise crosses it (titles spanning both columns).
const (
	minGutterWidth = 3
	gutterNoise    = 10
)

// Reflow rewrites layout-preserved text, where columns sit side by side
// separated by a whitespace gutter, into reading order: all lines of the left
// column followed by all lines of the right column. Text without a gutter is
// returned unchanged.
func Reflow(text string) string {
	lines := strings.Split(text, "\n")
	rows := make([][]rune, len(lines))
	for i, l := range lines {
		rows[i] = []rune(strings.TrimRight(l, " \t"))
	}
	cols := splitColumns(rows)
	if len(cols) < 2 {
		return text
	}

	var out []string
	for _, col := range cols {
		var block []string
		for _, r := range col {
			block = append(block, strings.TrimSpace(string(r)))
		}
		out = append(out, strings.Trim(strings.Join(block, "\n"), "\n"))
	}
	return strings.Join(out, "\n\n")
}

// splitColumns recursively splits rows at the widest blank gutter.
func splitColumns(rows [][]rune) [][][]rune {
	start, end := findGutter(rows)
	if start < 0 {
		return [][][]rune{rows}
	}
	left := make([][]rune, len(rows))
	right := make([][]rune, len(rows))
	for i, r := range rows {
		switch {
		case len(r) <= start:
			left[i] = r
		case len(r) <= end:
			left[i] = r
		default:
			left[i] = r[:end]
			right[i] = r[end:]
		}
	}
	return append([][][]rune{left}, splitColumns(right)...)
}

// findGutter returns the widest run [start, end) of character columns that are
// blank in (almost) every line and have text on both sides, or -1, -1.
func findGutter(rows [][]rune) (int, int) {
	width := 0
	nonEmpty := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
		if strings.TrimSpace(string(r)) != "" {
			nonEmpty++
		}
	}
	if width == 0 || nonEmpty < 2 {
		return -1, -1
	}
	allowed := nonEmpty / gutterNoise

	blank := make([]bool, width)
	leftText := make([]bool, width)
	for c := 0; c < width; c++ {
		crossing := 0
		for _, r := range rows {
			if c < len(r) && r[c] != ' ' && r[c] != '\t' {
				crossing++
				leftText[c] = true
			}
		}
		blank[c] = crossing <= allowed
	}

	bestStart, bestEnd := -1, -1
	seenText := false
	for c := 0; c < width; {
		if !blank[c] {
			seenText = seenText || leftText[c]
			c++
			continue
		}
		s := c
		for c < width && blank[c] {
			c++
		}
		if !seenText || c >= width || c-s < minGutterWidth {
			continue
		}
		if c-s > bestEnd-bestStart {
			bestStart, bestEnd = s, c
		}
	}
	return bestStart, bestEnd
}
