package images

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// OCR recognizes the text in an image file.
type OCR interface {
	Text(ctx context.Context, imagePath string) (string, error)
}

// TesseractOCR shells out to the tesseract CLI.
type TesseractOCR struct {
	Command string
}

func (t *TesseractOCR) Text(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, t.Command, imagePath, "stdout")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", t.Command, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(string(out)), nil
}

// NopOCR recognizes nothing; every image gets the default captions.
type NopOCR struct{}

func (NopOCR) Text(context.Context, string) (string, error) { return "", nil }

// NewOCR returns a TesseractOCR for command, or NopOCR when command is empty
// or not on PATH.
func NewOCR(command string, log *slog.Logger) OCR {
	if command == "" {
		return NopOCR{}
	}
	path, err := exec.LookPath(command)
	if err != nil {
		if log != nil {
			log.Warn("ocr command not found, image captions disabled", "command", command)
		}
		return NopOCR{}
	}
	return &TesseractOCR{Command: path}
}
