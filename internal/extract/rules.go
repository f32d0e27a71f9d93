package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// rule turns one sentence into at most one fact. The question and answer are
// returned untrimmed; empty results are discarded by the caller.
type rule struct {
	category Category
	pattern  *regexp.Regexp
	build    func(m []string) (question, answer string)
}

// rules run in this order against every sentence; more than one may fire.
var rules = []rule{
	{
		category: CategoryDefinition,
		pattern:  regexp.MustCompile(`^([A-Z][a-zA-Z\s\-]+?) is (a|an|the) (.+)`),
		build: func(m []string) (string, string) {
			// The article stays with the definition.
			return question("What is %s?", m[1]), strings.TrimSuffix(strings.TrimSpace(m[2]+" "+m[3]), ".")
		},
	},
	{
		category: CategorySymptoms,
		pattern:  regexp.MustCompile(`^Symptoms of (.+?) include (.+?)\.`),
		build: func(m []string) (string, string) {
			return question("What are the symptoms of %s?", m[1]), strings.TrimSpace(m[2])
		},
	},
	{
		category: CategoryTreatment,
		pattern:  regexp.MustCompile(`^Treatment of (.+?) includes (.+?)\.`),
		build: func(m []string) (string, string) {
			return question("How is %s treated?", m[1]), strings.TrimSpace(m[2])
		},
	},
	{
		category: CategoryCause,
		pattern:  regexp.MustCompile(`^(.+?) is caused by (.+?)\.`),
		build: func(m []string) (string, string) {
			return question("What causes %s?", m[1]), strings.TrimSpace(m[2])
		},
	},
}

// question fills a template with the trimmed term, or returns "" when the
// term is blank.
func question(tmpl, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}
	return fmt.Sprintf(tmpl, term)
}

// SplitSentences splits text after '.', '!' or '?' followed by whitespace,
// and at paragraph breaks. Sentences are trimmed; empty ones are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			flush()
		}
	}
	flush()

	return sentences
}

// ExtractFacts applies the extraction rules to every sentence of one page.
// Ids are assigned from startID upward and at most limit facts are returned;
// a limit of zero or less yields nothing.
func ExtractFacts(text string, page int, source string, startID, limit int) []Fact {
	return extractFacts(text, page, source, startID, limit, time.Now().UTC())
}

func extractFacts(text string, page int, source string, startID, limit int, at time.Time) []Fact {
	if limit <= 0 || strings.TrimSpace(text) == "" {
		return nil
	}

	var facts []Fact
	id := startID
	for _, s := range SplitSentences(text) {
		for _, r := range rules {
			m := r.pattern.FindStringSubmatch(s)
			if m == nil {
				continue
			}
			q, a := r.build(m)
			f := Fact{
				ID:             FormatID(id),
				Question:       q,
				Answer:         a,
				SourceDocument: source,
				PageNumber:     page,
				Category:       r.category,
				CreatedAt:      at,
			}
			if !ValidateFact(&f) {
				continue
			}
			facts = append(facts, f)
			id++
			if len(facts) >= limit {
				return facts
			}
		}
	}
	return facts
}
