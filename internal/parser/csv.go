package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
)

// csvRowsPerPage is how many data rows make up one page.
const csvRowsPerPage = 20

// CSVParser handles CSV files. The first row is a header and is skipped;
// every non-empty cell of a data row becomes its own paragraph.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := newDocument(filename)
	if len(records) < 2 {
		return doc, nil
	}

	rows := records[1:]
	for i := 0; i < len(rows); i += csvRowsPerPage {
		end := min(i+csvRowsPerPage, len(rows))

		var paras []string
		for _, row := range rows[i:end] {
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					paras = append(paras, cell)
				}
			}
		}
		doc.AddPage(strings.Join(paras, "\n\n"), document.LayoutSingle)
	}
	return doc, nil
}
