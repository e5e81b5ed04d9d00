// Package geometry holds the small amount of 2-D math the compliance engine needs.
package geometry

import (
	"math"

	"github.com/golang/geo/r2"
)

// Point is a position in the shared image/model coordinate space.
type Point = r2.Point

// Pt is shorthand for constructing a Point.
func Pt(x, y float64) Point {
	return r2.Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Sub(b).Norm()
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return a.Add(b).Mul(0.5)
}

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(lo, hi, v float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IsFinite reports whether both coordinates are finite numbers.
func IsFinite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// BoxCenter returns the centre of the axis-aligned box (x1,y1)-(x2,y2).
func BoxCenter(x1, y1, x2, y2 float64) Point {
	return r2.RectFromPoints(Pt(x1, y1), Pt(x2, y2)).Center()
}
