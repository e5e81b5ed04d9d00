package domain

import "time"

// Sample is a captured evaluation cycle, kept for later review of a session
type Sample struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id"`
	Score          float64     `json:"score"`
	Status         Status      `json:"status"`
	DetectionCount int         `json:"detection_count"`
	AlertCount     int         `json:"alert_count"`
	Detections     []Detection `json:"detections"`
	CapturedAt     time.Time   `json:"captured_at"`
}

// NewSample creates a sample from a report
func NewSample(id, sessionID string, detections []Detection, report *ComplianceReport) *Sample {
	return &Sample{
		ID:             id,
		SessionID:      sessionID,
		Score:          report.Score,
		Status:         report.Status,
		DetectionCount: len(detections),
		AlertCount:     len(report.Alerts),
		Detections:     detections,
		CapturedAt:     time.Now().UTC(),
	}
}

// Summary aggregates the captured scores of a session
type Summary struct {
	SessionID string  `json:"session_id"`
	Samples   int     `json:"samples"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	StdDev    float64 `json:"std_dev"`
}

// SessionInfo describes a session that has captured samples
type SessionInfo struct {
	ID            string    `json:"id"`
	Samples       int       `json:"samples"`
	CreatedAt     time.Time `json:"created_at"`
	LastCaptureAt time.Time `json:"last_capture_at"`
}
