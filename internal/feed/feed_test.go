package feed

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"bimsight/internal/domain"
	"bimsight/internal/engine"
	"bimsight/internal/loader"
	"bimsight/internal/logging/loggingtest"
	"bimsight/internal/repository/sqlite"
	"bimsight/internal/service"
)

func testFrames() []domain.Frame {
	return []domain.Frame{
		{Index: 0, Detections: []domain.Detection{
			domain.NewDetection("wall", 0.9, domain.NewPoint(200, 150)),
			domain.NewDetection("beam", 0.2, domain.NewPoint(350, 150)),
		}},
		{Index: 1, Detections: []domain.Detection{}},
	}
}

func TestReplayFeed(t *testing.T) {
	ctx := context.Background()
	f := NewReplayFeed("test", testFrames(), ReplayOptions{MinConfidence: 0.5})
	test.That(t, f.Len(), test.ShouldEqual, 2)

	frame, err := f.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Index, test.ShouldEqual, 0)
	test.That(t, len(frame.Detections), test.ShouldEqual, 1)
	test.That(t, frame.Detections[0].Class, test.ShouldEqual, "wall")

	frame, err = f.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Index, test.ShouldEqual, 1)

	_, err = f.Next(ctx)
	test.That(t, errors.Is(err, ErrExhausted), test.ShouldBeTrue)

	f.Rewind()
	frame, err = f.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Index, test.ShouldEqual, 0)
}

func TestReplayFeedLoop(t *testing.T) {
	ctx := context.Background()
	f := NewReplayFeed("loop", testFrames(), ReplayOptions{Loop: true})

	var indices []int
	for i := 0; i < 5; i++ {
		frame, err := f.Next(ctx)
		test.That(t, err, test.ShouldBeNil)
		indices = append(indices, frame.Index)
	}
	test.That(t, indices, test.ShouldResemble, []int{0, 1, 0, 1, 0})

	empty := NewReplayFeed("empty", nil, ReplayOptions{Loop: true})
	_, err := empty.Next(ctx)
	test.That(t, errors.Is(err, ErrExhausted), test.ShouldBeTrue)
}

func TestReplayFeedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReplayFeed("test", testFrames(), ReplayOptions{}).Next(ctx)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestOpenReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frames.json")
	body := `[{"frame": 7, "detections": [{"class": "viga", "confidence": 0.8, "box": {"x1": 300, "y1": 140, "x2": 400, "y2": 160}}]}]`
	test.That(t, os.WriteFile(path, []byte(body), 0o644), test.ShouldBeNil)

	f, err := OpenReplay(path, ReplayOptions{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Name(), test.ShouldEqual, path)

	frame, err := f.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.Index, test.ShouldEqual, 7)
	test.That(t, frame.Detections[0].Position, test.ShouldResemble, domain.NewPoint(350, 150))

	_, err = OpenReplay(filepath.Join(t.TempDir(), "missing.json"), ReplayOptions{})
	test.That(t, err, test.ShouldNotBeNil)
}

type recordingSink struct {
	mu     sync.Mutex
	frames []int
	fail   bool
}

func (s *recordingSink) sink(ctx context.Context, frame domain.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, frame.Index)
	if s.fail {
		return errors.New("sink failed")
	}
	return nil
}

func (s *recordingSink) seen() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.frames...)
}

func TestRunnerDrainsFeed(t *testing.T) {
	rec := &recordingSink{}
	r := NewRunner(NewReplayFeed("test", testFrames(), ReplayOptions{}), rec.sink, time.Millisecond, loggingtest.NewLogger(t))

	test.That(t, r.Start(context.Background()), test.ShouldBeNil)
	test.That(t, r.Start(context.Background()), test.ShouldNotBeNil)

	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after the feed was exhausted")
	}

	test.That(t, rec.seen(), test.ShouldResemble, []int{0, 1})
	stats := r.Stats()
	test.That(t, stats.Frames, test.ShouldEqual, int64(2))
	test.That(t, stats.Errors, test.ShouldEqual, int64(0))
	test.That(t, stats.Running, test.ShouldBeFalse)
}

func TestRunnerStop(t *testing.T) {
	rec := &recordingSink{fail: true}
	feed := NewReplayFeed("loop", testFrames(), ReplayOptions{Loop: true})
	r := NewRunner(feed, rec.sink, time.Millisecond, nil)

	test.That(t, r.Start(context.Background()), test.ShouldBeNil)
	deadline := time.Now().Add(5 * time.Second)
	for len(rec.seen()) < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	r.Stop()

	stats := r.Stats()
	test.That(t, stats.Running, test.ShouldBeFalse)
	test.That(t, stats.Frames, test.ShouldBeGreaterThanOrEqualTo, int64(3))
	test.That(t, stats.Errors, test.ShouldEqual, stats.Frames)
}

func TestRunnerDefaultInterval(t *testing.T) {
	r := NewRunner(NewReplayFeed("test", nil, ReplayOptions{}), nil, 0, nil)
	test.That(t, r.interval, test.ShouldEqual, DefaultInterval)
}

func TestServiceSink(t *testing.T) {
	ctx := context.Background()
	logger := loggingtest.NewLogger(t)

	repo, err := sqlite.New(":memory:")
	test.That(t, err, test.ShouldBeNil)
	defer repo.Close()

	svc, err := service.NewComplianceService(service.Options{
		Params: engine.DefaultParams(),
		Source: loader.NewDefaultSource(),
		Repo:   repo,
		Logger: logger,
	})
	test.That(t, err, test.ShouldBeNil)
	_, err = svc.Reload(ctx)
	test.That(t, err, test.ShouldBeNil)

	frames := testFrames()
	test.That(t, ServiceSink(svc, "replay", false, logger)(ctx, frames[0]), test.ShouldBeNil)
	test.That(t, ServiceSink(svc, "replay", true, logger)(ctx, frames[0]), test.ShouldBeNil)

	summary, err := svc.Summary(ctx, "replay")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, summary.Frames, test.ShouldEqual, int64(2))
	test.That(t, summary.Stored.Samples, test.ShouldEqual, 1)
}
