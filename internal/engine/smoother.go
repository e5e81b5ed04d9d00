package engine

import (
	"github.com/montanaflynn/stats"
)

// Smoother keeps a fixed-capacity FIFO window of recent scores for display.
// It does not synchronize; one evaluation stream owns it.
type Smoother struct {
	capacity int
	values   []float64
}

// NewSmoother creates a smoother; non-positive capacities fall back to the default
func NewSmoother(capacity int) *Smoother {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &Smoother{
		capacity: capacity,
		values:   make([]float64, 0, capacity),
	}
}

// Push appends a score, evicting the oldest once the window is full
func (s *Smoother) Push(score float64) {
	if len(s.values) < s.capacity {
		s.values = append(s.values, score)
		return
	}
	copy(s.values, s.values[1:])
	s.values[len(s.values)-1] = score
}

// Average returns the mean of the window, or 0 when empty
func (s *Smoother) Average() float64 {
	mean, err := stats.Mean(s.values)
	if err != nil {
		return 0
	}
	return mean
}

// Len returns the number of scores in the window
func (s *Smoother) Len() int {
	return len(s.values)
}

// Capacity returns the window size
func (s *Smoother) Capacity() int {
	return s.capacity
}

// Values returns a copy of the window, oldest first
func (s *Smoother) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Reset empties the window
func (s *Smoother) Reset() {
	s.values = s.values[:0]
}

// WindowStats summarises the current window
type WindowStats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Stats returns count, mean, min and max of the window (zeros when empty)
func (s *Smoother) Stats() WindowStats {
	ws := WindowStats{Count: len(s.values)}
	if ws.Count == 0 {
		return ws
	}
	data := stats.Float64Data(s.values)
	ws.Mean, _ = data.Mean()
	ws.Min, _ = data.Min()
	ws.Max, _ = data.Max()
	return ws
}
