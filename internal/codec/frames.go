package codec

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"bimsight/internal/domain"
)

// DecodeFrames reads recorded detection frames: either a list of frames or a single
// bare list of detections (treated as frame 0).
func DecodeFrames(r io.Reader) ([]domain.Frame, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse frames")
	}

	var frames []domain.Frame
	if err := json.Unmarshal(raw, &frames); err != nil {
		return nil, errors.Wrap(err, "failed to parse frames")
	}

	// a bare detection list decodes into frames with no detections
	if len(frames) > 0 && isDetectionList(raw) {
		var dets []domain.Detection
		if err := json.Unmarshal(raw, &dets); err != nil {
			return nil, errors.Wrap(err, "failed to parse detections")
		}
		frames = []domain.Frame{{Index: 0, Detections: dets}}
	}

	for i := range frames {
		if frames[i].Detections == nil {
			frames[i].Detections = []domain.Detection{}
		}
	}
	return frames, nil
}

// EncodeFrames writes frames as indented JSON
func EncodeFrames(frames []domain.Frame, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(frames); err != nil {
		return errors.Wrap(err, "failed to encode frames")
	}
	return nil
}

func isDetectionList(raw json.RawMessage) bool {
	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	for _, entry := range probe {
		if _, ok := entry["class"]; ok {
			return true
		}
	}
	return false
}
