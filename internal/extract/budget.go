package extract

import (
	"time"

	"github.com/dgallion1/docdialog/internal/document"
)

// Budget tracks fact ids and the per-run fact cap. It is owned by a single
// run and is not safe for concurrent use.
type Budget struct {
	next  int
	max   int
	count int
}

// NewBudget returns a budget allowing up to limit facts, numbered from qa_001.
func NewBudget(limit int) *Budget {
	return &Budget{next: 1, max: limit}
}

// Remaining returns how many more facts may be emitted.
func (b *Budget) Remaining() int {
	if r := b.max - b.count; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether the cap has been reached.
func (b *Budget) Exhausted() bool {
	return b.Remaining() == 0
}

// Count returns the number of facts emitted so far.
func (b *Budget) Count() int {
	return b.count
}

func (b *Budget) consume(n int) {
	b.next += n
	b.count += n
}

// Extractor runs the extraction rules over pages against a shared budget.
type Extractor struct {
	Budget *Budget
	// Now stamps CreatedAt; defaults to time.Now in UTC.
	Now func() time.Time
}

// NewExtractor returns an extractor capped at limit facts.
func NewExtractor(limit int) *Extractor {
	return &Extractor{Budget: NewBudget(limit)}
}

// Page extracts facts from one annotated page. Once the budget is exhausted
// it returns nil.
func (e *Extractor) Page(p *document.Page) []Fact {
	if e.Budget.Exhausted() {
		return nil
	}
	at := time.Now().UTC()
	if e.Now != nil {
		at = e.Now()
	}
	facts := extractFacts(p.CleanedText, p.Number, p.DocumentID, e.Budget.next, e.Budget.Remaining(), at)
	e.Budget.consume(len(facts))
	return facts
}

// Documents extracts facts from every page of docs in document and page order,
// stopping when the budget is exhausted.
func (e *Extractor) Documents(docs []*document.Document) []Fact {
	var all []Fact
	for _, d := range docs {
		for _, p := range d.Pages {
			if e.Budget.Exhausted() {
				return all
			}
			all = append(all, e.Page(p)...)
		}
	}
	return all
}
