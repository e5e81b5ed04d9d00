package domain

import "strings"

// Category classifies a structural element of the reference model
type Category string

const (
	CategoryWall  Category = "wall"
	CategoryBeam  Category = "beam"
	CategoryOther Category = "other"
)

// ParseCategory maps a model type string ("wall", "IfcWall", "beams", "viga") to a Category.
// Anything unrecognised is CategoryOther.
func ParseCategory(s string) Category {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case lower == "":
		return CategoryOther
	case strings.Contains(lower, "wall"), strings.Contains(lower, "parede"):
		return CategoryWall
	case strings.Contains(lower, "beam"), strings.Contains(lower, "viga"):
		return CategoryBeam
	default:
		return CategoryOther
	}
}

// SourceRecord is a reference element as delivered by a model source, before normalization.
// Either ExpectedPosition or Geometry (or both) may be present.
type SourceRecord struct {
	ID               string         `json:"id,omitempty"`
	Name             string         `json:"name,omitempty"`
	Category         Category       `json:"category"`
	ExpectedPosition *Point         `json:"expected_position,omitempty"`
	Geometry         []Point        `json:"geometry,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
}

// ReferenceElement is a normalized structural element with exactly one expected position
type ReferenceElement struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Category   Category       `json:"category"`
	Expected   Point          `json:"expected_position"`
	Geometry   []Point        `json:"geometry,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}
