package loader

import (
	"context"

	"bimsight/internal/domain"
)

// DefaultSource is the built-in simulated site: two rectangular walls and two beam segments
type DefaultSource struct{}

// NewDefaultSource creates the simulated model source
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{}
}

// Name identifies the simulated model
func (s *DefaultSource) Name() string {
	return "simulated"
}

// Load returns the simulated records
func (s *DefaultSource) Load(ctx context.Context) ([]domain.SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return []domain.SourceRecord{
		{
			ID: "sim_wall_1", Name: "Wall 1", Category: domain.CategoryWall,
			Geometry: rect(100, 100, 300, 200),
		},
		{
			ID: "sim_wall_2", Name: "Wall 2", Category: domain.CategoryWall,
			Geometry: rect(400, 150, 600, 250),
		},
		{
			ID: "sim_beam_1", Name: "Beam 1", Category: domain.CategoryBeam,
			Geometry: []domain.Point{domain.NewPoint(200, 150), domain.NewPoint(500, 150)},
		},
		{
			ID: "sim_beam_2", Name: "Beam 2", Category: domain.CategoryBeam,
			Geometry: []domain.Point{domain.NewPoint(150, 300), domain.NewPoint(450, 300)},
		},
	}, nil
}

// rect lists the corners clockwise from (x1,y1)
func rect(x1, y1, x2, y2 float64) []domain.Point {
	return []domain.Point{
		domain.NewPoint(x1, y1),
		domain.NewPoint(x2, y1),
		domain.NewPoint(x2, y2),
		domain.NewPoint(x1, y2),
	}
}
