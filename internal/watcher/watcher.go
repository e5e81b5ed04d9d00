// Package watcher reloads the reference model when its file changes on disk.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before a reload
const DefaultDebounce = 500 * time.Millisecond

// ReloadFunc is called once per burst of changes
type ReloadFunc func(ctx context.Context) error

// Watcher watches a model file and reloads it after changes settle
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   *zap.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// New creates a new file watcher
func New(path string, reload ReloadFunc, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     path,
		reload:   reload,
		debounce: DefaultDebounce,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// WithDebounce sets the debounce duration; non-positive values keep the default
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	if d > 0 {
		w.debounce = d
	}
	return w
}

// Start begins watching and returns once the watch is registered.
// The watch stops when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}

	// watch the directory so editors that replace the file are still seen
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return errors.Wrapf(err, "failed to watch %s", dir)
	}
	w.fsw = fsw

	w.logger.Info("watching model file", zap.String("path", w.path), zap.Duration("debounce", w.debounce))
	go w.loop(ctx)
	return nil
}

// Done is closed when the watch loop has exited
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Watch starts watching and blocks until ctx is cancelled
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.Start(ctx); err != nil {
		return err
	}
	<-w.done
	return ctx.Err()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer w.fsw.Close()

	filename := filepath.Base(w.path)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			pending = false
			w.logger.Info("model file changed", zap.String("path", w.path))
			if err := w.reload(ctx); err != nil {
				// keep the previous model; the next save retries
				w.logger.Warn("model reload failed", zap.String("path", w.path), zap.Error(err))
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
