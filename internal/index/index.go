// Package index normalizes model-source records into the ordered per-category
// list of reference elements the matcher consumes.
package index

import (
	"bimsight/internal/domain"
	"bimsight/internal/geometry"
)

// Minimum geometry sizes for derived positions
const (
	minPolygonPoints = 4
	segmentPoints    = 2
)

// Index holds reference elements grouped by category in insertion order.
// It is immutable once built and safe to share between goroutines.
type Index struct {
	byCategory map[domain.Category][]domain.ReferenceElement
	order      []domain.Category
	dropped    []domain.SourceRecord
}

// Build normalizes records into an Index. Records whose expected position
// cannot be derived are dropped, never reported as errors.
func Build(records []domain.SourceRecord) *Index {
	idx := &Index{
		byCategory: make(map[domain.Category][]domain.ReferenceElement),
	}

	for _, rec := range records {
		pos, ok := ExpectedPosition(rec)
		if !ok {
			idx.dropped = append(idx.dropped, rec)
			continue
		}

		category := rec.Category
		if category == "" {
			category = domain.CategoryOther
		}
		if _, seen := idx.byCategory[category]; !seen {
			idx.order = append(idx.order, category)
		}

		idx.byCategory[category] = append(idx.byCategory[category], domain.ReferenceElement{
			ID:         rec.ID,
			Name:       rec.Name,
			Category:   category,
			Expected:   pos,
			Geometry:   rec.Geometry,
			Properties: rec.Properties,
		})
	}

	return idx
}

// ExpectedPosition derives the expected position of a record:
// explicit position first, then the diagonal midpoint of a polygon with
// at least four points, then the midpoint of a two-point segment.
func ExpectedPosition(rec domain.SourceRecord) (domain.Point, bool) {
	if rec.ExpectedPosition != nil {
		if !geometry.IsFinite(rec.ExpectedPosition.Vec()) {
			return domain.Point{}, false
		}
		return *rec.ExpectedPosition, true
	}

	var pos geometry.Point
	switch n := len(rec.Geometry); {
	case n >= minPolygonPoints:
		// cheap rectangle centre: midpoint of the first diagonal
		pos = geometry.Midpoint(rec.Geometry[0].Vec(), rec.Geometry[2].Vec())
	case n == segmentPoints:
		pos = geometry.Midpoint(rec.Geometry[0].Vec(), rec.Geometry[1].Vec())
	default:
		return domain.Point{}, false
	}

	if !geometry.IsFinite(pos) {
		return domain.Point{}, false
	}
	return domain.PointFromVec(pos), true
}

// Elements returns the elements of a category in insertion order.
// The returned slice must not be modified.
func (idx *Index) Elements(category domain.Category) []domain.ReferenceElement {
	if idx == nil {
		return nil
	}
	return idx.byCategory[category]
}

// Categories returns the indexed categories in first-seen order
func (idx *Index) Categories() []domain.Category {
	if idx == nil {
		return nil
	}
	out := make([]domain.Category, len(idx.order))
	copy(out, idx.order)
	return out
}

// Len returns the total number of indexed elements
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	n := 0
	for _, elems := range idx.byCategory {
		n += len(elems)
	}
	return n
}

// Dropped returns the records that were excluded for lack of a derivable position
func (idx *Index) Dropped() []domain.SourceRecord {
	if idx == nil {
		return nil
	}
	return idx.dropped
}

// Snapshot is a serializable view of the index
type Snapshot struct {
	Elements map[domain.Category][]domain.ReferenceElement `json:"elements"`
	Total    int                                           `json:"total"`
	Dropped  int                                           `json:"dropped"`
}

// Snapshot returns a copy of the index contents for reporting
func (idx *Index) Snapshot() Snapshot {
	snap := Snapshot{
		Elements: make(map[domain.Category][]domain.ReferenceElement),
	}
	if idx == nil {
		return snap
	}
	for _, c := range idx.order {
		elems := make([]domain.ReferenceElement, len(idx.byCategory[c]))
		copy(elems, idx.byCategory[c])
		snap.Elements[c] = elems
	}
	snap.Total = idx.Len()
	snap.Dropped = len(idx.dropped)
	return snap
}
