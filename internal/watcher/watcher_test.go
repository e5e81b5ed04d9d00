package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"bimsight/internal/logging/loggingtest"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	test.That(t, os.WriteFile(path, []byte(`{}`), 0o644), test.ShouldBeNil)

	var reloads atomic.Int32
	w := New(path, func(ctx context.Context) error {
		reloads.Add(1)
		return nil
	}, loggingtest.NewLogger(t)).WithDebounce(100 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	test.That(t, w.Start(ctx), test.ShouldBeNil)

	// a burst of writes collapses into one reload
	for i := 0; i < 3; i++ {
		test.That(t, os.WriteFile(path, []byte(`{"elements": {}}`), 0o644), test.ShouldBeNil)
	}
	waitFor(t, func() bool { return reloads.Load() >= 1 })

	time.Sleep(300 * time.Millisecond)
	test.That(t, reloads.Load(), test.ShouldEqual, int32(1))

	cancel()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	var reloads atomic.Int32
	w := New(path, func(ctx context.Context) error {
		reloads.Add(1)
		return nil
	}, nil).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	test.That(t, w.Start(ctx), test.ShouldBeNil)

	test.That(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644), test.ShouldBeNil)
	time.Sleep(150 * time.Millisecond)
	test.That(t, reloads.Load(), test.ShouldEqual, int32(0))
}

func TestWatcherSurvivesReloadError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")

	var reloads atomic.Int32
	w := New(path, func(ctx context.Context) error {
		reloads.Add(1)
		return errors.New("broken model")
	}, loggingtest.NewLogger(t)).WithDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	test.That(t, w.Start(ctx), test.ShouldBeNil)

	test.That(t, os.WriteFile(path, []byte("a"), 0o644), test.ShouldBeNil)
	waitFor(t, func() bool { return reloads.Load() == 1 })

	time.Sleep(100 * time.Millisecond)
	test.That(t, os.WriteFile(path, []byte("b"), 0o644), test.ShouldBeNil)
	waitFor(t, func() bool { return reloads.Load() == 2 })
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "model.json"), func(context.Context) error { return nil }, nil)
	err := w.Start(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWithDebounce(t *testing.T) {
	w := New("model.json", nil, nil)
	test.That(t, w.WithDebounce(0).debounce, test.ShouldEqual, DefaultDebounce)
	test.That(t, w.WithDebounce(time.Second).debounce, test.ShouldEqual, time.Second)
}
