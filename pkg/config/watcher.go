package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the write bursts editors and atomic-rename saves
// produce into a single notification.
const watchDebounce = 500 * time.Millisecond

// Watcher reports on-disk changes to the configuration file. The loaded
// configuration stays immutable for the process lifetime; the watcher exists
// so an operator learns a restart is due, not to hot-reload state.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
	onDrift func(path string)
}

// NewWatcher creates a watcher over the configuration file at path. onDrift
// is invoked, debounced, after the file changes on disk.
func NewWatcher(path string, logger *slog.Logger, onDrift func(path string)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: atomic saves replace the inode and
	// a file-level watch would go stale after the first write.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	return &Watcher{
		path:    path,
		watcher: fw,
		logger:  logger,
		onDrift: onDrift,
	}, nil
}

// Run processes filesystem events until ctx is cancelled, then closes the
// underlying watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.logger.Warn("configuration file changed on disk, restart to apply",
				"path", w.path,
			)
			if w.onDrift != nil {
				w.onDrift(w.path)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("configuration watch error", "path", w.path, "error", err)
		}
	}
}
