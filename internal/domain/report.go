package domain

// MatchResult pairs one detection with at most one reference element
type MatchResult struct {
	Detection Detection         `json:"detection"`
	Category  Category          `json:"category"`
	Element   *ReferenceElement `json:"element,omitempty"`
	Deviation *float64          `json:"deviation,omitempty"`
	Alert     bool              `json:"alert,omitempty"`
}

// Matched reports whether the detection was paired with an element
func (m MatchResult) Matched() bool {
	return m.Element != nil
}

// Alert is a matched detection whose deviation exceeds the tolerance
type Alert struct {
	Detection Detection `json:"detection"`
	ElementID string    `json:"element_id,omitempty"`
	Deviation float64   `json:"deviation"`
}

// ComplianceReport is the outcome of one evaluation cycle
type ComplianceReport struct {
	Score   float64       `json:"score"`
	Status  Status        `json:"status"`
	Matches []MatchResult `json:"matches"`
	Alerts  []Alert       `json:"alerts"`

	PositionCompliance  float64 `json:"position_compliance"`
	DetectionCompliance float64 `json:"detection_compliance"`
	AverageDeviation    float64 `json:"average_deviation"`
	Matched             int     `json:"matched"`
	Unmatched           int     `json:"unmatched"`
	TotalElements       int     `json:"total_elements"`
}

// HasAlerts returns true if any matched pair exceeded the tolerance
func (r *ComplianceReport) HasAlerts() bool {
	return len(r.Alerts) > 0
}

// Detections returns the scored detections in input order
func (r *ComplianceReport) Detections() []Detection {
	out := make([]Detection, len(r.Matches))
	for i, m := range r.Matches {
		out[i] = m.Detection
	}
	return out
}
