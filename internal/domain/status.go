package domain

// Status is the discrete band a compliance score falls into
type Status string

const (
	StatusExcellent Status = "excellent" // [80, 100]
	StatusGood      Status = "good"      // [60, 80)
	StatusFair      Status = "fair"      // [40, 60)
	StatusCritical  Status = "critical"  // [0, 40)
)

// Band lower bounds, inclusive
const (
	ExcellentThreshold = 80.0
	GoodThreshold      = 60.0
	FairThreshold      = 40.0
)

// ClassifyScore returns the status band for a score
func ClassifyScore(score float64) Status {
	switch {
	case score >= ExcellentThreshold:
		return StatusExcellent
	case score >= GoodThreshold:
		return StatusGood
	case score >= FairThreshold:
		return StatusFair
	default:
		return StatusCritical
	}
}

// Label returns the display label for the status
func (s Status) Label() string {
	switch s {
	case StatusExcellent:
		return "EXCELLENT"
	case StatusGood:
		return "GOOD"
	case StatusFair:
		return "FAIR"
	default:
		return "CRITICAL"
	}
}
