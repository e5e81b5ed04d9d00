package domain

import "bimsight/internal/geometry"

// Point is a 2-D position in the shared image/model coordinate space
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NewPoint creates a new point
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Vec converts the point to the geometry package representation
func (p Point) Vec() geometry.Point {
	return geometry.Pt(p.X, p.Y)
}

// PointFromVec converts a geometry point back into a domain point
func PointFromVec(v geometry.Point) Point {
	return Point{X: v.X, Y: v.Y}
}

// Box is an axis-aligned bounding box as reported by a detector
type Box struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
}

// Center returns the centre of the box
func (b Box) Center() Point {
	return PointFromVec(geometry.BoxCenter(b.X1, b.Y1, b.X2, b.Y2))
}
