// Package images pulls embedded images out of PDF pages and pairs each one
// with OCR captions.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const (
	DefaultImageType     = "diagram"
	NoTextCaption        = "No text detected"
	NoDescriptionCaption = "No description available"

	maxShortCaption = 80
)

// Pair links an extracted image file to the text recognized in it.
type Pair struct {
	PairID          string `json:"pair_id"`
	ImagePath       string `json:"image_path"`
	ImageType       string `json:"image_type"`
	CaptionShort    string `json:"caption_short"`
	CaptionDetailed string `json:"caption_detailed"`
	SourceDocument  string `json:"source_document"`
	PageNumber      int    `json:"page_number"`
}

// Captions derives the short and detailed captions from OCR output.
func Captions(ocrText string) (short, detailed string) {
	text := strings.TrimSpace(ocrText)
	if text == "" {
		return NoTextCaption, NoDescriptionCaption
	}
	first := strings.SplitN(text, "\n", 2)[0]
	if r := []rune(first); len(r) > maxShortCaption {
		first = string(r[:maxShortCaption])
	}
	return first, text
}

// Extractor writes the images of PDF documents to Dir and OCRs them. Pair ids
// continue across calls, so one extractor serves one run.
type Extractor struct {
	Dir    string
	OCR    OCR
	Logger *slog.Logger

	next int
}

// NewExtractor returns an extractor writing into dir.
func NewExtractor(dir string, ocr OCR, log *slog.Logger) *Extractor {
	if ocr == nil {
		ocr = NopOCR{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{Dir: dir, OCR: ocr, Logger: log, next: 1}
}

// Count returns the number of pairs produced so far.
func (e *Extractor) Count() int {
	return e.next - 1
}

// ExtractFile extracts the images of the PDF at path. source is the document
// id recorded on each pair.
func (e *Extractor) ExtractFile(ctx context.Context, path, source string) ([]Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return e.Extract(ctx, f, source)
}

// Extract writes every embedded image of the PDF in rs to
// <Dir>/<stem>_p<page>_img<index>.<ext> and OCRs it. An OCR failure only
// costs that image its captions.
func (e *Extractor) Extract(ctx context.Context, rs io.ReadSeeker, source string) ([]Pair, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	if e.next == 0 {
		e.next = 1
	}

	stem := strings.TrimSuffix(source, filepath.Ext(source))
	log := e.Logger.With("document", source)
	perPage := map[int]int{}
	var pairs []Pair

	digest := func(img model.Image, _ bool, _ int) error {
		perPage[img.PageNr]++
		ext := img.FileType
		if ext == "" {
			ext = "png"
		}
		name := fmt.Sprintf("%s_p%d_img%d.%s", stem, img.PageNr, perPage[img.PageNr], ext)
		path := filepath.Join(e.Dir, name)

		if err := writeImage(path, img); err != nil {
			return err
		}

		text, err := e.OCR.Text(ctx, path)
		if err != nil {
			log.Warn("ocr failed", "image", name, "error", err)
			text = ""
		}
		short, detailed := Captions(text)

		pairs = append(pairs, Pair{
			PairID:          fmt.Sprintf("img_%03d", e.next),
			ImagePath:       path,
			ImageType:       DefaultImageType,
			CaptionShort:    short,
			CaptionDetailed: detailed,
			SourceDocument:  source,
			PageNumber:      img.PageNr,
		})
		e.next++
		return nil
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImages(rs, nil, digest, conf); err != nil {
		return pairs, fmt.Errorf("extract images: %w", err)
	}
	log.Debug("images extracted", "count", len(pairs))
	return pairs, nil
}

func writeImage(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write image file: %w", err)
	}
	return f.Close()
}
