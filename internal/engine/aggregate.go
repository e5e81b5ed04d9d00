package engine

import (
	"bimsight/internal/domain"
	"bimsight/internal/geometry"
)

// Breakdown is the aggregated score of a cycle with its intermediate terms
type Breakdown struct {
	Score               float64
	PositionCompliance  float64
	DetectionCompliance float64
	AverageDeviation    float64
	Matched             int
	Unmatched           int
	Total               int
}

// Aggregate folds matched pairs and the count of unmatched detections into a
// score in [0,100]. Only entries of matches carrying a deviation count as
// matched pairs; unmatched detections are passed as a count. Unmatched
// detections add nothing to the deviation sum but still count in the
// denominator of the average. A cycle with no matched pair scores 0.
func Aggregate(matches []domain.MatchResult, unmatched int, p Params) Breakdown {
	var (
		sum     float64
		matched int
	)
	for _, m := range matches {
		if m.Element == nil || m.Deviation == nil {
			continue
		}
		sum += *m.Deviation
		matched++
	}
	if unmatched < 0 {
		unmatched = 0
	}

	b := Breakdown{
		Matched:   matched,
		Unmatched: unmatched,
		Total:     matched + unmatched,
	}
	if b.Total == 0 {
		return b
	}

	total := float64(b.Total)
	b.AverageDeviation = sum / total

	// with nothing matched no position was verified, so position compliance
	// stays 0 instead of reading a perfect average over zero pairs
	switch {
	case matched == 0:
	case p.MaxDeviation > 0:
		b.PositionCompliance = geometry.Clamp(0, 100, 100-(b.AverageDeviation/p.MaxDeviation)*100)
	case b.AverageDeviation == 0:
		b.PositionCompliance = 100
	}
	b.DetectionCompliance = float64(matched) / total * 100

	// explicit conversions keep the products from being fused
	b.Score = geometry.Clamp(0, 100,
		float64(b.PositionCompliance*p.PositionWeight)+float64(b.DetectionCompliance*p.DetectionWeight))
	return b
}
