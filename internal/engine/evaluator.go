package engine

import (
	"bimsight/internal/domain"
	"bimsight/internal/index"
)

// Evaluator runs evaluation cycles against one reference index.
// It holds no per-cycle state and may be shared between goroutines.
type Evaluator struct {
	params   Params
	keywords KeywordTable
	index    *index.Index
}

// NewEvaluator creates an evaluator with the default keyword table
func NewEvaluator(params Params, idx *index.Index) *Evaluator {
	return &Evaluator{
		params:   params,
		keywords: DefaultKeywords(),
		index:    idx,
	}
}

// WithKeywords replaces the keyword table; an empty table keeps the current one
func (e *Evaluator) WithKeywords(kt KeywordTable) *Evaluator {
	if len(kt) > 0 {
		e.keywords = kt
	}
	return e
}

// Params returns the scoring policy
func (e *Evaluator) Params() Params {
	return e.params
}

// Index returns the reference index the evaluator scores against
func (e *Evaluator) Index() *index.Index {
	return e.index
}

// Evaluate scores one batch of detections. It never fails: an empty index
// leaves every detection unmatched and an empty batch scores 0.
func (e *Evaluator) Evaluate(detections []domain.Detection) *domain.ComplianceReport {
	matches := Match(detections, e.index, e.keywords)

	report := &domain.ComplianceReport{
		Matches: matches,
		Alerts:  []domain.Alert{},
	}

	unmatched := 0
	for i := range matches {
		m := &matches[i]
		if m.Element == nil {
			unmatched++
			continue
		}
		dev := Deviation(m.Detection.Position, m.Element.Expected)
		m.Deviation = &dev
		if e.params.IsAlert(dev) {
			m.Alert = true
			report.Alerts = append(report.Alerts, domain.Alert{
				Detection: m.Detection,
				ElementID: m.Element.ID,
				Deviation: dev,
			})
		}
	}

	b := Aggregate(matches, unmatched, e.params)
	report.Score = b.Score
	report.Status = domain.ClassifyScore(b.Score)
	report.PositionCompliance = b.PositionCompliance
	report.DetectionCompliance = b.DetectionCompliance
	report.AverageDeviation = b.AverageDeviation
	report.Matched = b.Matched
	report.Unmatched = b.Unmatched
	report.TotalElements = b.Total

	return report
}

// Evaluate is a convenience wrapper for a one-off cycle with the default keywords
func Evaluate(detections []domain.Detection, idx *index.Index, params Params) *domain.ComplianceReport {
	return NewEvaluator(params, idx).Evaluate(detections)
}
