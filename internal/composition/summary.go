package composition

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a result set. PooledGC treats all sequences as one
// (sum of G+C over sum of lengths); MeanGC is the unweighted mean of the
// per-sequence GC values.
type Summary struct {
	Sequences   int           `json:"sequences"`
	TotalLength int           `json:"total_length"`
	CountA      int           `json:"count_a"`
	CountT      int           `json:"count_t"`
	CountG      int           `json:"count_g"`
	CountC      int           `json:"count_c"`
	PooledGC    float64       `json:"pooled_gc"`
	MeanGC      float64       `json:"mean_gc"`
	MinGC       float64       `json:"min_gc"`
	MinGCID     string        `json:"min_gc_id"`
	MaxGC       float64       `json:"max_gc"`
	MaxGCID     string        `json:"max_gc_id"`
	Levels      map[Level]int `json:"levels"`
}

// Summarize folds results into a Summary. Ties for min/max keep the first
// sequence seen. An empty input gives a zero Summary with an empty Levels map.
func Summarize(results []Result) Summary {
	s := Summary{Levels: map[Level]int{}}
	if len(results) == 0 {
		return s
	}
	gcs := make([]float64, len(results))
	for i, r := range results {
		s.Sequences++
		s.TotalLength += r.Length
		s.CountA += r.CountA
		s.CountT += r.CountT
		s.CountG += r.CountG
		s.CountC += r.CountC
		s.Levels[r.Level]++
		gcs[i] = r.GCContent
	}
	s.MeanGC = Round2(stat.Mean(gcs, nil))
	// MinIdx and MaxIdx return the first index on ties
	lo, hi := floats.MinIdx(gcs), floats.MaxIdx(gcs)
	s.MinGC, s.MinGCID = gcs[lo], results[lo].ID
	s.MaxGC, s.MaxGCID = gcs[hi], results[hi].ID
	if s.TotalLength > 0 {
		s.PooledGC = Round2(float64(s.CountG+s.CountC) / float64(s.TotalLength) * 100)
	}
	return s
}
