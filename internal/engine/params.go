// Package engine implements the matching and scoring core: pairing detections
// with reference elements, measuring their deviation, and folding a cycle
// into one bounded compliance score.
package engine

import (
	"math"

	"github.com/pkg/errors"
)

// Default policy constants
const (
	DefaultTolerance       = 50.0
	DefaultMaxDeviation    = 150.0
	DefaultPositionWeight  = 0.7
	DefaultDetectionWeight = 0.3
	DefaultWindowSize      = 30

	weightSumEpsilon = 1e-9
)

// Params holds the tunable scoring policy
type Params struct {
	// Tolerance is the deviation above which a matched pair raises an alert
	Tolerance float64 `json:"tolerance_px" yaml:"tolerance_px"`

	// MaxDeviation is the average deviation at which position compliance reaches zero
	MaxDeviation float64 `json:"max_acceptable_deviation" yaml:"max_acceptable_deviation"`

	// PositionWeight and DetectionWeight must sum to 1
	PositionWeight  float64 `json:"position_weight" yaml:"position_weight"`
	DetectionWeight float64 `json:"detection_weight" yaml:"detection_weight"`

	// WindowSize is the capacity of the smoothing window
	WindowSize int `json:"smoothing_window_size" yaml:"smoothing_window_size"`
}

// DefaultParams returns the reference policy
func DefaultParams() Params {
	return Params{
		Tolerance:       DefaultTolerance,
		MaxDeviation:    DefaultMaxDeviation,
		PositionWeight:  DefaultPositionWeight,
		DetectionWeight: DefaultDetectionWeight,
		WindowSize:      DefaultWindowSize,
	}
}

// Validate checks the policy is usable
func (p Params) Validate() error {
	if p.Tolerance < 0 || math.IsNaN(p.Tolerance) {
		return errors.Errorf("tolerance_px must be >= 0, got %v", p.Tolerance)
	}
	if p.MaxDeviation <= 0 || math.IsNaN(p.MaxDeviation) {
		return errors.Errorf("max_acceptable_deviation must be > 0, got %v", p.MaxDeviation)
	}
	if p.PositionWeight < 0 || p.PositionWeight > 1 {
		return errors.Errorf("position_weight must be in [0,1], got %v", p.PositionWeight)
	}
	if p.DetectionWeight < 0 || p.DetectionWeight > 1 {
		return errors.Errorf("detection_weight must be in [0,1], got %v", p.DetectionWeight)
	}
	if sum := p.PositionWeight + p.DetectionWeight; math.Abs(sum-1) > weightSumEpsilon {
		return errors.Errorf("position_weight + detection_weight must equal 1, got %v", sum)
	}
	if p.WindowSize <= 0 {
		return errors.Errorf("smoothing_window_size must be > 0, got %d", p.WindowSize)
	}
	return nil
}
