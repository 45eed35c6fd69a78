package composition

import (
	"context"
	"math"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"

	"gccontent/internal/fasta"
)

func TestComputeScenarios(t *testing.T) {
	tests := []struct {
		seq             string
		a, tt, g, c, gc float64
		level           Level
	}{
		{"ATGC", 25, 25, 25, 25, 50, Moderate},
		{"AAAA", 100, 0, 0, 0, 0, Low},
		{"ggcc", 0, 0, 50, 50, 100, High},
	}
	for _, tc := range tests {
		res, ok := Compute(fasta.Record{ID: "x", Sequence: tc.seq})
		if !ok {
			t.Fatalf("%s: expected a result", tc.seq)
		}
		if res.Length != len(tc.seq) {
			t.Fatalf("%s: expected length %d, got %d", tc.seq, len(tc.seq), res.Length)
		}
		if res.PctA != tc.a || res.PctT != tc.tt || res.PctG != tc.g || res.PctC != tc.c {
			t.Fatalf("%s: unexpected percentages %+v", tc.seq, res)
		}
		if res.GCContent != tc.gc || res.Level != tc.level {
			t.Fatalf("%s: expected gc %.2f/%v, got %.2f/%v", tc.seq, tc.gc, tc.level, res.GCContent, res.Level)
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	if _, ok := Compute(fasta.Record{ID: "e"}); ok {
		t.Fatalf("expected empty sequence to be skipped")
	}
}

func TestAmbiguityCodesCountTowardLengthOnly(t *testing.T) {
	res, _ := Compute(fasta.Record{ID: "n", Sequence: "ACGTNNNN"})
	if res.Length != 8 {
		t.Fatalf("expected length 8, got %d", res.Length)
	}
	if res.PctA != 12.5 || res.GCContent != 25 || res.PctOther != 50 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Other() != 4 {
		t.Fatalf("expected 4 other characters, got %d", res.Other())
	}
	sum := res.PctA + res.PctT + res.PctG + res.PctC
	if math.Abs(sum-(100-res.PctOther)) > 0.04 {
		t.Fatalf("expected base percentages to sum to %.2f, got %.2f", 100-res.PctOther, sum)
	}
}

func TestGCFromCountsNotRoundedPercentages(t *testing.T) {
	// 1 G and 1 C in 6: pct_g = pct_c = 16.67, but gc = 33.33
	res, _ := Compute(fasta.Record{ID: "r", Sequence: "GCAAAA"})
	if res.PctG != 16.67 || res.PctC != 16.67 {
		t.Fatalf("unexpected G/C percentages %+v", res)
	}
	if res.GCContent != 33.33 {
		t.Fatalf("expected gc 33.33, got %v", res.GCContent)
	}
	if res.GCContent == Round2(res.PctG+res.PctC) {
		t.Fatalf("expected gc to differ from pct_g+pct_c (%v)", res.PctG+res.PctC)
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		gc   float64
		want Level
	}{
		{0, Low},
		{39.99, Low},
		{40.0, Moderate},
		{50, Moderate},
		{60.0, Moderate},
		{60.01, High},
		{100, High},
	}
	for _, tc := range tests {
		if got := Classify(tc.gc); got != tc.want {
			t.Fatalf("Classify(%v): expected %v, got %v", tc.gc, tc.want, got)
		}
	}
}

func TestLevelUsesUnroundedGC(t *testing.T) {
	// 3001/5001 = 60.0079...% rounds to 60.01 and is High.
	high := strings.Repeat("G", 3001) + strings.Repeat("A", 2000)
	res, _ := Compute(fasta.Record{ID: "h", Sequence: high})
	if res.GCContent != 60.01 || res.Level != High {
		t.Fatalf("expected 60.01/High, got %v/%v", res.GCContent, res.Level)
	}
	// 1999/4999 = 39.9879...% is Low even though it rounds to 39.99.
	low := strings.Repeat("C", 1999) + strings.Repeat("T", 3000)
	res, _ = Compute(fasta.Record{ID: "l", Sequence: low})
	if res.GCContent != 39.99 || res.Level != Low {
		t.Fatalf("expected 39.99/Low, got %v/%v", res.GCContent, res.Level)
	}
	// 40.004% rounds to 40.0 and is Moderate.
	mid := strings.Repeat("G", 10001) + strings.Repeat("A", 14999)
	res, _ = Compute(fasta.Record{ID: "m", Sequence: mid})
	if res.GCContent != 40 || res.Level != Moderate {
		t.Fatalf("expected 40/Moderate, got %v/%v", res.GCContent, res.Level)
	}
}

func TestAnalyzeFastaScenarios(t *testing.T) {
	res := Analyze(fasta.ParseString(">seq1\nGGCC\n>seq2\nAATT\n"))
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].ID != "seq1" || res[0].GCContent != 100 || res[0].Level != High {
		t.Fatalf("unexpected first result %+v", res[0])
	}
	if res[1].ID != "seq2" || res[1].GCContent != 0 || res[1].Level != Low {
		t.Fatalf("unexpected second result %+v", res[1])
	}

	res = Analyze(fasta.ParseString(">seq1\n>seq2\nAATT\n"))
	if len(res) != 1 || res[0].ID != "seq2" {
		t.Fatalf("expected only seq2, got %+v", res)
	}
}

func TestAnalyzeOrderAndFiltering(t *testing.T) {
	recs := []fasta.Record{{ID: "r1", Sequence: "AC"}, {ID: "r2"}, {ID: "r3", Sequence: "GT"}}
	res := Analyze(recs)
	if len(res) != 2 || res[0].ID != "r1" || res[1].ID != "r3" {
		t.Fatalf("expected [r1 r3], got %+v", res)
	}
	if got := Analyze(nil); len(got) != 0 {
		t.Fatalf("expected no results for nil input, got %d", len(got))
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	recs := fasta.ParseString(">a\nACGTNACGT\n>b\nGGGGCA\n>a\nttt\n")
	first := Analyze(recs)
	second := Analyze(recs)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("expected duplicates to be kept, got %d results", len(first))
	}
}

func TestFromRaw(t *testing.T) {
	recs := FromRaw("  atg\ncA \r\n\tGG ")
	if len(recs) != 1 || recs[0].ID != DefaultID || recs[0].Sequence != "atgcAGG" {
		t.Fatalf("unexpected records %+v", recs)
	}
	if recs := FromRaw(" \n\t "); len(recs) != 0 {
		t.Fatalf("expected no records for blank input, got %+v", recs)
	}
	res := Analyze(FromRaw("ATGC"))
	if len(res) != 1 || res[0].ID != "User_Input_1" || res[0].Level != Moderate {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestAnalyzeParallelMatchesAnalyze(t *testing.T) {
	var recs []fasta.Record
	for i := 0; i < 200; i++ {
		seq := strings.Repeat("ACGGT", i%7)
		recs = append(recs, fasta.Record{ID: strings.Repeat("s", i%5+1), Sequence: seq})
	}
	var done int64
	got, err := AnalyzeParallel(context.Background(), recs, 4, func() { atomic.AddInt64(&done, 1) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := Analyze(recs); !reflect.DeepEqual(got, want) {
		t.Fatalf("parallel result differs from sequential")
	}
	if done != int64(len(recs)) {
		t.Fatalf("expected %d callbacks, got %d", len(recs), done)
	}
}

func TestAnalyzeParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recs := []fasta.Record{{ID: "a", Sequence: "A"}, {ID: "b", Sequence: "C"}}
	if _, err := AnalyzeParallel(ctx, recs, 1, nil); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestSummarize(t *testing.T) {
	res := Analyze([]fasta.Record{
		{ID: "lo", Sequence: "AAAT"},
		{ID: "mid", Sequence: "ACGT"},
		{ID: "hi", Sequence: "GGGC"},
	})
	s := Summarize(res)
	if s.Sequences != 3 || s.TotalLength != 12 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.MinGCID != "lo" || s.MaxGCID != "hi" || s.MinGC != 0 || s.MaxGC != 100 {
		t.Fatalf("unexpected min/max %+v", s)
	}
	if s.MeanGC != 50 || s.PooledGC != 50 {
		t.Fatalf("unexpected gc aggregates %+v", s)
	}
	if s.Levels[Low] != 1 || s.Levels[Moderate] != 1 || s.Levels[High] != 1 {
		t.Fatalf("unexpected level counts %v", s.Levels)
	}
	if empty := Summarize(nil); empty.Sequences != 0 || empty.Levels == nil {
		t.Fatalf("unexpected empty summary %+v", empty)
	}
}

func TestSummarizeTiesAndWeighting(t *testing.T) {
	res := Analyze([]fasta.Record{
		{ID: "first", Sequence: "GC"},
		{ID: "long", Sequence: "AAAAAAAA"},
		{ID: "second", Sequence: "CG"},
		{ID: "again", Sequence: "TTTT"},
	})
	s := Summarize(res)
	if s.MaxGCID != "first" || s.MinGCID != "long" {
		t.Fatalf("expected first-seen ids on ties, got min=%q max=%q", s.MinGCID, s.MaxGCID)
	}
	// mean of 100, 0, 100, 0 versus 4 G+C out of 16 bases
	if s.MeanGC != 50 || s.PooledGC != 25 {
		t.Fatalf("expected mean 50 and pooled 25, got %+v", s)
	}
}
