package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BeFlock/bereshit/internal/project"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchConfig holds watcher configuration options.
type WatchConfig struct {
	// Debounce coalesces bursts of filesystem events into one reload.
	Debounce time.Duration
}

// DefaultWatchConfig returns sensible defaults for the watcher.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{Debounce: 200 * time.Millisecond}
}

// Watcher reloads the registry whenever projects.json changes on disk,
// including changes made by other processes.
type Watcher struct {
	store     *Store
	debounce  time.Duration
	fsWatcher *fsnotify.Watcher
	updates   chan []project.Project
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewWatcher creates a watcher for the store's registry file.
func NewWatcher(store *Store, cfg WatchConfig) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultWatchConfig().Debounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		store:     store,
		debounce:  cfg.Debounce,
		fsWatcher: fsw,
		updates:   make(chan []project.Project, 1),
		stop:      make(chan struct{}),
	}, nil
}

// Start begins watching the data directory, creating it if needed. The
// returned channel receives the reloaded project list after each change and
// is closed when the watcher stops.
func (w *Watcher) Start(ctx context.Context) (<-chan []project.Project, error) {
	dir := w.store.DataDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, project.IOError("Failed to create app data directory", err)
	}

	// The file is replaced by rename on every write, so watch the directory.
	if err := w.fsWatcher.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	go w.loop(ctx)

	return w.updates, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.updates)

	var timer *time.Timer
	var fire <-chan time.Time

	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isRegistryEvent(event) {
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
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(ctx)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn(ctx, "registry watcher error", zap.Error(err))

		case <-w.stop:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	projects, err := w.store.List(ctx)
	if err != nil {
		// Usually a writer from another process mid-way through; keep watching.
		w.store.logger.Warn(ctx, "registry reload failed", zap.Error(err))
		return
	}

	// Keep only the latest list if the consumer is behind.
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- projects:
	case <-w.stop:
	case <-ctx.Done():
	}
}

// isRegistryEvent checks if the event should trigger a reload.
func isRegistryEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	return filepath.Base(event.Name) == FileName
}
