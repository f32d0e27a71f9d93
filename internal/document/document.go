package document

// Layout describes how a page's text was laid out on the source page.
type Layout string

const (
	LayoutSingle      Layout = "single"
	LayoutMultiColumn Layout = "multi_column"
)

// Document is one source file split into ordered pages.
type Document struct {
	ID    string  `json:"filename" yaml:"filename"` // Source identifier (file base name)
	Title string  `json:"title,omitempty" yaml:"title,omitempty"`
	Pages []*Page `json:"pages" yaml:"pages"`
}

// Page is a single 1-based page of a document. Structural fields are empty
// until the annotator has run.
type Page struct {
	DocumentID  string `json:"-" yaml:"-"`
	Number      int    `json:"page" yaml:"page"`
	RawText     string `json:"-" yaml:"-"`
	Layout      Layout `json:"layout,omitempty" yaml:"layout,omitempty"`
	CleanedText string `json:"text" yaml:"text"`
	Chapter     string `json:"chapter,omitempty" yaml:"chapter,omitempty"`
	Section     string `json:"section,omitempty" yaml:"section,omitempty"`
	Subsection  string `json:"subsection,omitempty" yaml:"subsection,omitempty"`
}

// AddPage appends a page with the next contiguous page number.
func (d *Document) AddPage(raw string, layout Layout) *Page {
	if layout == "" {
		layout = LayoutSingle
	}
	p := &Page{
		DocumentID: d.ID,
		Number:     len(d.Pages) + 1,
		RawText:    raw,
		Layout:     layout,
	}
	d.Pages = append(d.Pages, p)
	return p
}

// Renumber restores contiguous 1-based page numbers and document back-references,
// e.g. after decoding an artifact.
func (d *Document) Renumber() {
	for i, p := range d.Pages {
		p.Number = i + 1
		p.DocumentID = d.ID
	}
}

// PageCount returns the total number of pages across documents.
func PageCount(docs []*Document) int {
	n := 0
	for _, d := range docs {
		n += len(d.Pages)
	}
	return n
}
