package engine

import (
	"bimsight/internal/domain"
	"bimsight/internal/geometry"
)

// Deviation is the Euclidean distance between a detected and an expected position
func Deviation(detected, expected domain.Point) float64 {
	return geometry.Distance(detected.Vec(), expected.Vec())
}

// IsAlert reports whether a deviation exceeds the tolerance
func (p Params) IsAlert(deviation float64) bool {
	return deviation > p.Tolerance
}
