package images

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestCaptions(t *testing.T) {
	long := strings.Repeat("x", 100)
	tests := []struct {
		name      string
		in        string
		wantShort string
		wantLong  string
	}{
		{"empty", "", NoTextCaption, NoDescriptionCaption},
		{"whitespace", " \n\t", NoTextCaption, NoDescriptionCaption},
		{"first line", "Figure 2: ORS\nmix one sachet", "Figure 2: ORS", "Figure 2: ORS\nmix one sachet"},
		{"capped", long, long[:80], long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			short, detailed := Captions(tt.in)
			if short != tt.wantShort {
				t.Errorf("expected short %q, got %q", tt.wantShort, short)
			}
			if detailed != tt.wantLong {
				t.Errorf("expected detailed %q, got %q", tt.wantLong, detailed)
			}
		})
	}
}

func TestCaptions_CapCountsRunes(t *testing.T) {
	in := strings.Repeat("é", 90)
	short, _ := Captions(in)
	if n := len([]rune(short)); n != 80 {
		t.Fatalf("expected 80 runes, got %d", n)
	}
}

func TestNewOCR_FallsBackToNop(t *testing.T) {
	if _, ok := NewOCR("", nil).(NopOCR); !ok {
		t.Fatal("expected NopOCR for empty command")
	}
	if _, ok := NewOCR("definitely-not-a-real-ocr-binary", nil).(NopOCR); !ok {
		t.Fatal("expected NopOCR for missing command")
	}
}

func TestTesseractOCR_ReadsStdout(t *testing.T) {
	echo, err := exec.LookPath("echo")
	if err != nil {
		t.Skip("echo not available")
	}
	ocr := &TesseractOCR{Command: echo}
	got, err := ocr.Text(context.Background(), "scan.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "scan.png stdout" {
		t.Fatalf("expected echoed arguments, got %q", got)
	}
}

func TestExtract_InvalidPDF(t *testing.T) {
	e := NewExtractor(filepath.Join(t.TempDir(), "images"), NopOCR{}, nil)
	_, err := e.Extract(context.Background(), strings.NewReader("not a pdf"), "bad.pdf")
	if err == nil {
		t.Fatal("expected error for invalid pdf")
	}
	if e.Count() != 0 {
		t.Fatalf("expected no pairs, got %d", e.Count())
	}
}
