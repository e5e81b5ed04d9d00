// Package feed replays recorded detection frames into the compliance service
// on a fixed cadence, standing in for a live camera and detector.
package feed

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"

	"bimsight/internal/codec"
	"bimsight/internal/domain"
)

// ErrExhausted is returned by Next when a non-looping feed has no frames left
var ErrExhausted = errors.New("feed exhausted")

// Feed produces detection frames
type Feed interface {
	Name() string
	Next(ctx context.Context) (domain.Frame, error)
}

// ReplayFeed serves a fixed list of frames in order, optionally looping
type ReplayFeed struct {
	name          string
	frames        []domain.Frame
	loop          bool
	minConfidence float64

	mu  sync.Mutex
	pos int
}

// ReplayOptions configures a ReplayFeed
type ReplayOptions struct {
	Loop          bool
	MinConfidence float64 // detections below this confidence are dropped
}

// NewReplayFeed creates a feed over frames
func NewReplayFeed(name string, frames []domain.Frame, opts ReplayOptions) *ReplayFeed {
	return &ReplayFeed{
		name:          name,
		frames:        frames,
		loop:          opts.Loop,
		minConfidence: opts.MinConfidence,
	}
}

// OpenReplay loads a recorded frames file
func OpenReplay(path string, opts ReplayOptions) (*ReplayFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open frames file %s", path)
	}
	defer f.Close()

	frames, err := codec.DecodeFrames(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read frames file %s", path)
	}
	return NewReplayFeed(path, frames, opts), nil
}

// Name returns the feed name
func (f *ReplayFeed) Name() string {
	return f.name
}

// Len returns the number of recorded frames
func (f *ReplayFeed) Len() int {
	return len(f.frames)
}

// Next returns the next frame with low-confidence detections removed
func (f *ReplayFeed) Next(ctx context.Context) (domain.Frame, error) {
	if err := ctx.Err(); err != nil {
		return domain.Frame{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pos >= len(f.frames) {
		if !f.loop || len(f.frames) == 0 {
			return domain.Frame{}, ErrExhausted
		}
		f.pos = 0
	}
	frame := f.frames[f.pos]
	f.pos++

	return domain.Frame{
		Index:      frame.Index,
		Detections: domain.FilterByConfidence(frame.Detections, f.minConfidence),
	}, nil
}

// Rewind restarts the feed from its first frame
func (f *ReplayFeed) Rewind() {
	f.mu.Lock()
	f.pos = 0
	f.mu.Unlock()
}
