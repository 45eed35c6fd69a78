// Package composition computes per-sequence nucleotide composition: base
// counts, percentages, GC content and a coarse GC level.
package composition

import (
	"math"
	"strings"
	"unicode"

	"gccontent/internal/fasta"
)

// DefaultID names a sequence pasted without a FASTA header.
const DefaultID = "User_Input_1"

// GC level thresholds. Both bounds belong to Moderate.
const (
	LowThreshold  = 40.0
	HighThreshold = 60.0
)

// Level is a qualitative GC content class.
type Level int

const (
	Low Level = iota
	Moderate
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "Low"
	case Moderate:
		return "Moderate"
	case High:
		return "High"
	default:
		return "Unknown"
	}
}

// Label is the form used in exported tables, e.g. "Moderate GC".
func (l Level) Label() string { return l.String() + " GC" }

// MarshalText lets Level appear by name in JSON output.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Result holds the statistics for one sequence. Percentages are rounded to
// two decimals; Level is derived from the unrounded GC value.
type Result struct {
	ID        string  `json:"sequence_id"`
	Length    int     `json:"length"`
	CountA    int     `json:"count_a"`
	CountT    int     `json:"count_t"`
	CountG    int     `json:"count_g"`
	CountC    int     `json:"count_c"`
	PctA      float64 `json:"pct_a"`
	PctT      float64 `json:"pct_t"`
	PctG      float64 `json:"pct_g"`
	PctC      float64 `json:"pct_c"`
	PctOther  float64 `json:"pct_other"`
	GCContent float64 `json:"gc_content"`
	Level     Level   `json:"gc_level"`
}

// Other is the number of characters that are not A, T, G or C.
func (r Result) Other() int {
	return r.Length - r.CountA - r.CountT - r.CountG - r.CountC
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Classify maps an unrounded GC percentage to a Level.
func Classify(gc float64) Level {
	switch {
	case gc < LowThreshold:
		return Low
	case gc <= HighThreshold:
		return Moderate
	default:
		return High
	}
}

// FromRaw wraps pasted sequence text as a single record named DefaultID.
// All whitespace, including line breaks, is removed. Blank text yields no
// records.
func FromRaw(text string) []fasta.Record {
	seq := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	if seq == "" {
		return nil
	}
	return []fasta.Record{{ID: DefaultID, Sequence: seq}}
}

// Compute analyzes a single record. ok is false when the normalized sequence
// is empty, in which case no result should be reported. Length counts
// characters, not bytes.
func Compute(rec fasta.Record) (res Result, ok bool) {
	seq := strings.ToUpper(rec.Sequence)
	if seq == "" {
		return Result{}, false
	}
	var n, a, t, g, c int
	for _, r := range seq {
		n++
		switch r {
		case 'A':
			a++
		case 'T':
			t++
		case 'G':
			g++
		case 'C':
			c++
		}
	}
	pct := func(k int) float64 { return float64(k) / float64(n) * 100 }
	gc := pct(g + c)
	return Result{
		ID:        rec.ID,
		Length:    n,
		CountA:    a,
		CountT:    t,
		CountG:    g,
		CountC:    c,
		PctA:      Round2(pct(a)),
		PctT:      Round2(pct(t)),
		PctG:      Round2(pct(g)),
		PctC:      Round2(pct(c)),
		PctOther:  Round2(pct(n - a - t - g - c)),
		GCContent: Round2(gc),
		Level:     Classify(gc),
	}, true
}

// Analyze computes one Result per non-empty record, in input order.
// Empty sequences are skipped silently.
func Analyze(recs []fasta.Record) []Result {
	results := make([]Result, 0, len(recs))
	for _, rec := range recs {
		if res, ok := Compute(rec); ok {
			results = append(results, res)
		}
	}
	return results
}
