package normalize

import (
	"strings"
	"testing"
)

func TestIsMultiColumn(t *testing.T) {
	tests := []struct {
		name      string
		xs        []float64
		threshold float64
		want      bool
	}{
		{"no words", nil, 100, false},
		{"single word", []float64{72}, 100, false},
		{"dense single column", []float64{72, 90, 110, 150, 180, 200}, 100, false},
		{"gap exactly threshold", []float64{72, 172}, 100, false},
		{"column break", []float64{72, 90, 110, 320, 340}, 100, true},
		{"unsorted input", []float64{340, 72, 320, 90}, 100, true},
		{"duplicates ignored", []float64{72, 72, 72, 150}, 100, false},
		{"default threshold", []float64{72, 300}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMultiColumn(tt.xs, tt.threshold); got != tt.want {
				t.Errorf("IsMultiColumn(%v, %v) = %v, want %v", tt.xs, tt.threshold, got, tt.want)
			}
		})
	}
}

func TestIsMultiColumn_DoesNotMutateInput(t *testing.T) {
	xs := []float64{300, 72}
	IsMultiColumn(xs, 100)
	if xs[0] != 300 || xs[1] != 72 {
		t.Errorf("expected input order preserved, got %v", xs)
	}
}

func TestReflow_TwoColumns(t *testing.T) {
	text := strings.Join([]string{
		"Left one        Right one",
		"Left two        Right two",
		"                Right three",
	}, "\n")
	got := Reflow(text)
	want := "Left one\nLeft two\n\nRight one\nRight two\nRight three"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReflow_NoGutterUnchanged(t *testing.T) {
	text := "a single column of prose\nthat wraps onto a second line"
	if got := Reflow(text); got != text {
		t.Errorf("expected unchanged text, got %q", got)
	}
}
