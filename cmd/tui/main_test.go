package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"gccontent/internal/composition"
	"gccontent/internal/fasta"
)

func testModel() model {
	recs := fasta.ParseString(">seq1\nGGCCNA\n>empty\n>seq2\nAATT\n")
	results := composition.Analyze(recs)
	return newModel(results, []string{"GGCCNA", "AATT"})
}

func TestCycleMode(t *testing.T) {
	m := testModel()
	if m.currentMode != modeComposition {
		t.Fatalf("expected initial mode composition, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeSequence {
		t.Fatalf("expected sequence, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeSummary {
		t.Fatalf("expected summary, got %v", m.currentMode)
	}
	m = m.cycleMode()
	if m.currentMode != modeComposition {
		t.Fatalf("expected composition, got %v", m.currentMode)
	}
}

func TestBuildRightLinesWrap(t *testing.T) {
	m := testModel()
	m.width = 120
	m.height = 40
	m.currentMode = modeSequence
	res := composition.Result{ID: "V1", Length: 150}
	lines := m.buildRightLines(res, strings.Repeat("ATG", 50))
	// header (3 lines) plus 150 bases wrapped at width 74
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
}

func TestBuildRightLinesComposition(t *testing.T) {
	m := testModel()
	m.width = 120
	m.height = 40
	lines := m.buildRightLines(m.results[0], "GGCCNA")
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"seq1", "High GC", "33.33%", "other characters: 1"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected panel to contain %q:\n%s", want, joined)
		}
	}
}

func TestBuildRightLinesSummary(t *testing.T) {
	m := testModel()
	m.width = 120
	m.currentMode = modeSummary
	joined := strings.Join(m.buildRightLines(m.results[0], ""), "\n")
	if !strings.Contains(joined, "Sequences:   2") || !strings.Contains(joined, "Max GC:      66.67% (seq1)") {
		t.Fatalf("unexpected summary panel:\n%s", joined)
	}
}

func TestUpdateKeys(t *testing.T) {
	m := testModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("3")})
	m = next.(model)
	if m.currentMode != modeSummary {
		t.Fatalf("expected summary mode, got %v", m.currentMode)
	}
	if view := m.View(); !strings.Contains(view, "Mode: Summary") {
		t.Fatalf("expected status bar to show mode")
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestLoadInput(t *testing.T) {
	dir := t.TempDir()
	fa := filepath.Join(dir, "in.fasta")
	if err := os.WriteFile(fa, []byte(">a\nacgt\n>b\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	results, seqs, err := loadInput(fa, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" || seqs[0] != "ACGT" {
		t.Fatalf("unexpected load: %+v %v", results, seqs)
	}

	raw := filepath.Join(dir, "raw.txt")
	if err := os.WriteFile(raw, []byte("GG\nCC\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	results, _, err = loadInput(raw, true)
	if err != nil || len(results) != 1 || results[0].ID != composition.DefaultID || results[0].GCContent != 100 {
		t.Fatalf("unexpected raw load: %+v (err=%v)", results, err)
	}
}
