// Package watcher reloads the corpus when its source file changes on disk.
// It watches the file's parent directory (editors often replace files via
// rename, which would drop a watch on the file itself) and coalesces rapid
// event bursts into a single reload.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	sberrors "github.com/songbook-app/songbook/internal/errors"
)

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before firing a coalesced reload.
	// Default: 500ms
	DebounceWindow time.Duration
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{DebounceWindow: 500 * time.Millisecond}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow == 0 {
		o.DebounceWindow = DefaultOptions().DebounceWindow
	}
	return o
}

// ReloadFunc is invoked after a debounced change to the corpus file.
// A returned error is logged; the watcher keeps running.
type ReloadFunc func(ctx context.Context) error

// Watcher observes one corpus file and triggers reloads.
type Watcher struct {
	path   string
	opts   Options
	reload ReloadFunc

	fsw   *fsnotify.Watcher
	timer *time.Timer
	mu    sync.Mutex

	stopOnce sync.Once
	done     chan struct{}
}

// New creates a watcher for the corpus file at path.
func New(path string, reload ReloadFunc, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, sberrors.New(sberrors.ErrCodeInvalidInput, "failed to resolve corpus path", err)
	}
	return &Watcher{
		path:   abs,
		opts:   opts.WithDefaults(),
		reload: reload,
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching and blocks until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return sberrors.New(sberrors.ErrCodeInternal, "failed to create file watcher", err)
	}
	w.fsw = fsw
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return sberrors.New(sberrors.ErrCodeInvalidInput,
			"failed to watch corpus directory", err).
			WithDetail("path", w.path)
	}

	slog.Info("corpus_watch_started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.opts.DebounceWindow))

	for {
		select {
		case <-ctx.Done():
			w.cancelTimer()
			return ctx.Err()
		case <-w.done:
			w.cancelTimer()
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				w.scheduleReload(ctx)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("corpus_watch_error", slog.String("error", err.Error()))
		}
	}
}

// Stop stops the watcher. Safe to call multiple times.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// relevant filters directory events down to writes of the watched file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// scheduleReload arms (or re-arms) the debounce timer.
func (w *Watcher) scheduleReload(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.DebounceWindow, func() {
		w.fire(ctx)
	})
}

func (w *Watcher) cancelTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// fire runs the reload callback. A failed reload leaves the previous corpus
// in place, so the error is logged rather than propagated.
func (w *Watcher) fire(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-w.done:
		return
	default:
	}

	slog.Info("corpus_changed", slog.String("path", w.path))
	if err := w.reload(ctx); err != nil {
		slog.Error("corpus_reload_failed", slog.Any("details", sberrors.FormatForLog(err)))
	}
}
