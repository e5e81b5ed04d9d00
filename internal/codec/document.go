package codec

import (
	"math"

	"bimsight/internal/domain"
)

// ModelDocument is the on-disk shape of a reference model
type ModelDocument struct {
	Project  ProjectInfo `json:"project" yaml:"project"`
	Elements ElementSet  `json:"elements" yaml:"elements"`
}

// ProjectInfo describes the modelled project
type ProjectInfo struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ElementSet groups elements by section. Walls and beams take their category from the
// section; others are classified by their type field.
type ElementSet struct {
	Walls  []ElementDoc `json:"walls" yaml:"walls"`
	Beams  []ElementDoc `json:"beams" yaml:"beams"`
	Others []ElementDoc `json:"others,omitempty" yaml:"others,omitempty"`
}

// ElementDoc is one element as written in a model document
type ElementDoc struct {
	ID               string         `json:"id,omitempty" yaml:"id,omitempty"`
	Name             string         `json:"name,omitempty" yaml:"name,omitempty"`
	Type             string         `json:"type,omitempty" yaml:"type,omitempty"`
	Geometry         *GeometryDoc   `json:"geometry,omitempty" yaml:"geometry,omitempty"`
	ExpectedPosition Coord          `json:"expected_position,omitempty" yaml:"expected_position,omitempty,flow"`
	Properties       map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// GeometryDoc is either a segment (start, end) or a polygon (points).
// Points win when both are present.
type GeometryDoc struct {
	Start  Coord   `json:"start,omitempty" yaml:"start,omitempty,flow"`
	End    Coord   `json:"end,omitempty" yaml:"end,omitempty,flow"`
	Points []Coord `json:"points,omitempty" yaml:"points,omitempty"`
}

// Coord is a coordinate list [x, y] or [x, y, z]; z is ignored
type Coord []float64

// Point converts the coordinate, reporting false when it has fewer than two finite values
func (c Coord) Point() (domain.Point, bool) {
	if len(c) < 2 {
		return domain.Point{}, false
	}
	if math.IsNaN(c[0]) || math.IsInf(c[0], 0) || math.IsNaN(c[1]) || math.IsInf(c[1], 0) {
		return domain.Point{}, false
	}
	return domain.NewPoint(c[0], c[1]), true
}

// CoordOf converts a point into a two-value coordinate
func CoordOf(p domain.Point) Coord {
	return Coord{p.X, p.Y}
}

// Records flattens the document into source records, walls first, then beams, then others.
// Malformed coordinates are left out so the index can drop the element.
func (d *ModelDocument) Records() []domain.SourceRecord {
	if d == nil {
		return nil
	}
	records := make([]domain.SourceRecord, 0,
		len(d.Elements.Walls)+len(d.Elements.Beams)+len(d.Elements.Others))

	for _, e := range d.Elements.Walls {
		records = append(records, e.record(domain.CategoryWall))
	}
	for _, e := range d.Elements.Beams {
		records = append(records, e.record(domain.CategoryBeam))
	}
	for _, e := range d.Elements.Others {
		records = append(records, e.record(domain.ParseCategory(e.Type)))
	}
	return records
}

// Len returns the number of elements in the document
func (d *ModelDocument) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Elements.Walls) + len(d.Elements.Beams) + len(d.Elements.Others)
}

func (e ElementDoc) record(category domain.Category) domain.SourceRecord {
	rec := domain.SourceRecord{
		ID:         e.ID,
		Name:       e.Name,
		Category:   category,
		Properties: e.Properties,
	}
	if p, ok := e.ExpectedPosition.Point(); ok {
		rec.ExpectedPosition = &p
	}
	if e.Geometry != nil {
		rec.Geometry = e.Geometry.points()
	}
	return rec
}

// points returns nil if any coordinate is malformed
func (g *GeometryDoc) points() []domain.Point {
	coords := g.Points
	if len(coords) == 0 {
		if g.Start == nil && g.End == nil {
			return nil
		}
		coords = []Coord{g.Start, g.End}
	}

	pts := make([]domain.Point, 0, len(coords))
	for _, c := range coords {
		p, ok := c.Point()
		if !ok {
			return nil
		}
		pts = append(pts, p)
	}
	return pts
}

// DocumentFromElements builds a document from normalized elements. Segments are written
// as start/end, everything else as points; the expected position is always written.
func DocumentFromElements(project ProjectInfo, elems []domain.ReferenceElement) *ModelDocument {
	doc := &ModelDocument{
		Project: project,
		Elements: ElementSet{
			Walls: []ElementDoc{},
			Beams: []ElementDoc{},
		},
	}

	for _, el := range elems {
		ed := ElementDoc{
			ID:               el.ID,
			Name:             el.Name,
			Type:             string(el.Category),
			ExpectedPosition: CoordOf(el.Expected),
			Properties:       el.Properties,
		}
		switch len(el.Geometry) {
		case 0:
		case 2:
			ed.Geometry = &GeometryDoc{Start: CoordOf(el.Geometry[0]), End: CoordOf(el.Geometry[1])}
		default:
			g := &GeometryDoc{Points: make([]Coord, len(el.Geometry))}
			for i, p := range el.Geometry {
				g.Points[i] = CoordOf(p)
			}
			ed.Geometry = g
		}

		switch el.Category {
		case domain.CategoryWall:
			doc.Elements.Walls = append(doc.Elements.Walls, ed)
		case domain.CategoryBeam:
			doc.Elements.Beams = append(doc.Elements.Beams, ed)
		default:
			doc.Elements.Others = append(doc.Elements.Others, ed)
		}
	}
	return doc
}
