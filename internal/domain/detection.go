package domain

import "encoding/json"

// Detection represents one object observed by the detector in a single evaluation cycle.
// Confidence is informational; the engine never filters on it.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Position   Point   `json:"position"`
	Box        *Box    `json:"box,omitempty"`
}

// NewDetection creates a detection at the given position
func NewDetection(class string, confidence float64, pos Point) Detection {
	return Detection{
		Class:      class,
		Confidence: confidence,
		Position:   pos,
	}
}

// NewBoxDetection creates a detection whose position is the centre of the box
func NewBoxDetection(class string, confidence float64, box Box) Detection {
	return Detection{
		Class:      class,
		Confidence: confidence,
		Position:   box.Center(),
		Box:        &box,
	}
}

// UnmarshalJSON decodes a detection. A detection given only as a box is
// positioned at the box centre; an explicit position is kept as given, (0,0) included.
func (d *Detection) UnmarshalJSON(data []byte) error {
	var raw struct {
		Class      string  `json:"class"`
		Confidence float64 `json:"confidence"`
		Position   *Point  `json:"position"`
		Box        *Box    `json:"box"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*d = Detection{Class: raw.Class, Confidence: raw.Confidence, Box: raw.Box}
	switch {
	case raw.Position != nil:
		d.Position = *raw.Position
	case raw.Box != nil:
		d.Position = raw.Box.Center()
	}
	return nil
}

// Frame is one recorded batch of detections
type Frame struct {
	Index      int         `json:"frame"`
	Detections []Detection `json:"detections"`
}

// FilterByConfidence returns the detections with confidence >= min.
// Used by upstream feeds only; the engine itself scores every detection it is given.
func FilterByConfidence(in []Detection, min float64) []Detection {
	out := make([]Detection, 0, len(in))
	for _, d := range in {
		if d.Confidence >= min {
			out = append(out, d)
		}
	}
	return out
}
