package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docdialog/internal/document"
)

// ErrUnsupportedFormat is returned by ForFile for extensions no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parser converts raw document bytes into an ordered list of pages.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// Options tune the parsers returned by ForFile.
type Options struct {
	PDFFallbackPdftotext bool
	// ColumnGap is the word-start gap in points that marks a PDF page as
	// multi-column. Zero uses the normalizer default.
	ColumnGap float64
	Logger    *slog.Logger
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".csv":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{
			FallbackPdftotext: opts.PDFFallbackPdftotext,
			ColumnGap:         opts.ColumnGap,
			Logger:            opts.Logger,
		}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// newDocument names a document after the base name of filename and titles it
// with the name minus its extension.
func newDocument(filename string) *document.Document {
	base := filepath.Base(filename)
	return &document.Document{
		ID:    base,
		Title: strings.TrimSuffix(base, filepath.Ext(base)),
	}
}
