package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"bimsight/internal/domain"
)

// unmarshalJSONField safely unmarshals JSON from nullable string into target
func unmarshalJSONField(ns sql.NullString, target interface{}) error {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(ns.String), target)
}

// marshalToNull marshals a value to nullable JSON string; empty slices are stored as NULL
func marshalToNull(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	if d, ok := v.([]domain.Detection); ok && len(d) == 0 {
		return sql.NullString{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// Column order must match between sampleColumns, scanArgs and sampleInsertArgs.
const sampleColumns = `id, session_id, score, status, detection_count, alert_count, detections, captured_at`

// sampleRow holds all columns from a sample query for scanning
type sampleRow struct {
	ID             string
	SessionID      string
	Score          float64
	Status         string
	DetectionCount int
	AlertCount     int
	DetectionsJSON sql.NullString
	CapturedAt     string
}

func (r *sampleRow) scanArgs() []interface{} {
	return []interface{}{
		&r.ID,
		&r.SessionID,
		&r.Score,
		&r.Status,
		&r.DetectionCount,
		&r.AlertCount,
		&r.DetectionsJSON,
		&r.CapturedAt,
	}
}

func (r *sampleRow) toDomain() (*domain.Sample, error) {
	captured, err := parseTime(r.CapturedAt)
	if err != nil {
		return nil, err
	}

	sample := &domain.Sample{
		ID:             r.ID,
		SessionID:      r.SessionID,
		Score:          r.Score,
		Status:         domain.Status(r.Status),
		DetectionCount: r.DetectionCount,
		AlertCount:     r.AlertCount,
		Detections:     []domain.Detection{},
		CapturedAt:     captured,
	}
	if err := unmarshalJSONField(r.DetectionsJSON, &sample.Detections); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal detections of sample %s", r.ID)
	}
	return sample, nil
}

func sampleInsertArgs(s *domain.Sample) ([]interface{}, error) {
	if s.ID == "" || s.SessionID == "" {
		return nil, errors.New("sample id and session id are required")
	}
	detections, err := marshalToNull(s.Detections)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal detections")
	}
	return []interface{}{
		s.ID,
		s.SessionID,
		s.Score,
		string(s.Status),
		s.DetectionCount,
		s.AlertCount,
		detections,
		formatTime(s.CapturedAt),
	}, nil
}
