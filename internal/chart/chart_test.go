package chart

import (
	"bytes"
	"errors"
	"image/png"
	"testing"

	"gccontent/internal/composition"
	"gccontent/internal/fasta"
)

func TestGCContentPNG(t *testing.T) {
	results := composition.Analyze(fasta.ParseString(">a\nGGCC\n>b\nAATT\n>c\nACGT\n"))
	p, err := GCContent(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, p, 0, 0); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		t.Fatalf("expected a non-empty image, got %v", b)
	}
}

func TestGCContentEmpty(t *testing.T) {
	if _, err := GCContent(nil); !errors.Is(err, ErrNoResults) {
		t.Fatalf("expected ErrNoResults, got %v", err)
	}
}

func TestBaseCompositionPNG(t *testing.T) {
	res, _ := composition.Compute(fasta.Record{ID: "first", Sequence: "AATGC"})
	p, err := BaseComposition(res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Title.Text != "Base Composition (first)" {
		t.Fatalf("unexpected title %q", p.Title.Text)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, p, DefaultWidth, DefaultHeight); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
}
