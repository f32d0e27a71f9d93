package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docdialog/internal/converse"
	"github.com/dgallion1/docdialog/internal/document"
	"github.com/dgallion1/docdialog/internal/extract"
	"github.com/dgallion1/docdialog/internal/images"
)

// Export file names.
const (
	FactsFile         = "qa_pairs.json"
	ConversationsFile = "conversations.json"
	ImagePairsFile    = "image_text_pairs.json"
	TextFile          = "all_extracted_text.txt"
)

// Export writes the JSON and text dumps of res into dir.
func Export(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	facts := res.Facts
	if facts == nil {
		facts = []extract.Fact{}
	}
	if err := writeJSON(filepath.Join(dir, FactsFile), map[string]any{"qa_pairs": facts}); err != nil {
		return err
	}

	convs := res.Conversations
	if convs == nil {
		convs = []converse.Conversation{}
	}
	if err := writeJSON(filepath.Join(dir, ConversationsFile), map[string]any{"conversations": convs}); err != nil {
		return err
	}

	if len(res.ImagePairs) > 0 {
		if err := writeJSON(filepath.Join(dir, ImagePairsFile), map[string][]images.Pair{"image_text_pairs": res.ImagePairs}); err != nil {
			return err
		}
	}

	path := filepath.Join(dir, TextFile)
	if err := os.WriteFile(path, []byte(ExtractedText(res.Documents)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ExtractedText renders every cleaned page under a [File: <doc> | Page <n>]
// header.
func ExtractedText(docs []*document.Document) string {
	var sb strings.Builder
	for _, d := range docs {
		for _, p := range d.Pages {
			fmt.Fprintf(&sb, "\n[File: %s | Page %d]\n%s\n", d.ID, p.Number, p.CleanedText)
		}
	}
	return sb.String()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
