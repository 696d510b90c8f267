// Package filewatcher provides file system monitoring adapters.
// Clean Architecture: Adapter implementing ports.FileWatcher.
package filewatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/ports"
)

// DefaultDebounce is how long a path must be quiet before its event is emitted.
// A single save usually arrives as a create followed by one or more writes.
const DefaultDebounce = 150 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
// Bursts of events for the same file collapse into one.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions []string // dataset extensions to watch, e.g. ".json"
	debounce   time.Duration
	logger     *zap.Logger
}

// NewFSNotifyWatcher creates a watcher for dataset files.
func NewFSNotifyWatcher(extensions []string, logger *zap.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	if len(extensions) == 0 {
		extensions = []string{".json"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: extensions,
		debounce:   DefaultDebounce,
		logger:     logger,
	}, nil
}

// Watch starts monitoring dir. The channel closes when ctx is done or the
// watcher is stopped.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	events := make(chan ports.FileEvent, 100)
	go w.run(ctx, dir, events)
	return events, nil
}

func (w *FSNotifyWatcher) run(ctx context.Context, dir string, events chan<- ports.FileEvent) {
	defer close(events)

	pending := make(map[string]ports.FileOperation)
	var (
		timer *time.Timer
		flush <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	emit := func() bool {
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			select {
			case events <- ports.FileEvent{Path: p, Operation: pending[p]}:
			case <-ctx.Done():
				return false
			}
			delete(pending, p)
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-flush:
			flush = nil
			if !emit() {
				return
			}
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isWatchedExtension(event.Name) {
				continue
			}
			op, ok := classify(event.Op)
			if !ok {
				continue
			}

			if prev, seen := pending[event.Name]; seen {
				op = merge(prev, op)
			}
			pending[event.Name] = op

			if w.debounce <= 0 {
				if !emit() {
					return
				}
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			flush = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.String("dir", dir), zap.Error(err))
		}
	}
}

// classify maps an fsnotify op to a FileOperation. Chmod is ignored.
func classify(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}

// merge folds next into a pending operation for the same path.
func merge(prev, next ports.FileOperation) ports.FileOperation {
	if prev == ports.FileCreated && next == ports.FileModified {
		return ports.FileCreated
	}
	return next
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

// isWatchedExtension checks if the file has a watched extension.
func (w *FSNotifyWatcher) isWatchedExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}
