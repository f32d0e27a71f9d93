package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Category classifies the rule a fact was extracted by.
type Category string

const (
	CategoryDefinition Category = "definition"
	CategorySymptoms   Category = "symptoms"
	CategoryTreatment  Category = "treatment"
	CategoryCause      Category = "cause"
)

// Categories lists the fact categories in rule order.
var Categories = []Category{CategoryDefinition, CategorySymptoms, CategoryTreatment, CategoryCause}

var validCategories = map[Category]bool{
	CategoryDefinition: true,
	CategorySymptoms:   true,
	CategoryTreatment:  true,
	CategoryCause:      true,
}

// ValidCategory reports whether c is one of the four fact categories.
func ValidCategory(c Category) bool {
	return validCategories[c]
}

// Fact is a question/answer pair extracted from one page of a source document.
type Fact struct {
	ID             string    `json:"id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	SourceDocument string    `json:"source_document"`
	PageNumber     int       `json:"page_number"`
	Category       Category  `json:"category"`
	CreatedAt      time.Time `json:"created_at"`
}

// SourceReference is the "<document>:p<page>" citation used in dialogue turns.
func (f *Fact) SourceReference() string {
	return fmt.Sprintf("%s:p%d", f.SourceDocument, f.PageNumber)
}

// FormatID renders the n-th fact id of a run.
func FormatID(n int) string {
	return fmt.Sprintf("qa_%03d", n)
}

var idPattern = regexp.MustCompile(`^qa_\d{3,}$`)

// ValidateFact checks a fact for validity. Returns true if valid. Length is
// not limited: every rule match with a non-blank term and answer is kept.
func ValidateFact(f *Fact) bool {
	if f == nil {
		return false
	}
	if !idPattern.MatchString(f.ID) {
		return false
	}
	q := strings.TrimSpace(f.Question)
	a := strings.TrimSpace(f.Answer)
	if q == "" || a == "" {
		return false
	}
	if !validCategories[f.Category] {
		return false
	}
	if f.PageNumber < 1 || f.SourceDocument == "" {
		return false
	}
	return true
}
