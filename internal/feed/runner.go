package feed

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"bimsight/internal/domain"
)

// DefaultInterval is the cadence used when none is configured
const DefaultInterval = time.Second

// Sink consumes one frame of detections
type Sink func(ctx context.Context, frame domain.Frame) error

// Stats counts the frames a runner has processed
type Stats struct {
	Frames  int64 `json:"frames"`
	Errors  int64 `json:"errors"`
	Running bool  `json:"running"`
}

// Runner polls a feed on a ticker and hands each frame to a sink
type Runner struct {
	feed     Feed
	sink     Sink
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stats   Stats
	running bool
}

// NewRunner creates a runner; non-positive intervals use DefaultInterval
func NewRunner(f Feed, sink Sink, interval time.Duration, logger *zap.Logger) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		feed:     f,
		sink:     sink,
		interval: interval,
		logger:   logger.With(zap.String("feed", f.Name())),
	}
}

// Start begins the polling loop. The first frame is processed immediately.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return errors.New("feed runner already started")
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.running = true

	r.wg.Add(1)
	go r.loop(ctx)

	r.logger.Info("started feed", zap.Duration("interval", r.interval))
	return nil
}

// Stop halts the polling loop and waits for it to finish
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
}

// Wait blocks until the polling loop has exited
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Stats returns a snapshot of the runner counters
func (r *Runner) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats
	s.Running = r.running
	return s
}

// Step pulls one frame and sinks it
func (r *Runner) Step(ctx context.Context) error {
	frame, err := r.feed.Next(ctx)
	if err != nil {
		return err
	}

	err = r.sink(ctx, frame)

	r.mu.Lock()
	r.stats.Frames++
	if err != nil {
		r.stats.Errors++
	}
	r.mu.Unlock()

	if err != nil {
		return errors.Wrapf(err, "frame %d", frame.Index)
	}
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Step(ctx); err != nil {
			switch {
			case errors.Is(err, ErrExhausted):
				r.logger.Info("feed exhausted", zap.Int64("frames", r.Stats().Frames))
				return
			case ctx.Err() != nil:
				return
			default:
				r.logger.Warn("frame failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			r.logger.Info("stopping feed")
			return
		case <-ticker.C:
		}
	}
}
