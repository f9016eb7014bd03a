package param

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Watcher reloads a store's parameter file whenever it changes on disk.
// Reloading goes through Store.Set, so OnChange callbacks observe every
// update without polling.
type Watcher struct {
	store *Store
	fs    afero.Fs
	path  string

	mu     sync.Mutex
	active bool
}

// NewWatcher creates a watcher for the given parameter file. Start must be
// called to begin monitoring.
func NewWatcher(store *Store, fs afero.Fs, path string) *Watcher {
	return &Watcher{
		store: store,
		fs:    fs,
		path:  path,
	}
}

// Start begins monitoring the parameter file for changes. It watches the
// containing directory rather than the file itself, because editors and
// config tools often replace the file with a rename, which drops a
// file-level watch. Monitoring stops when ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.active {
		slog.Debug("Parameter file watcher already active", "path", w.path)
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	w.active = true
	go w.watch(ctx, fsw)

	slog.Debug("Started parameter file watcher", "path", w.path, "directory", dir)
	return nil
}

// watch handles file system events until the context ends.
func (w *Watcher) watch(ctx context.Context, fsw *fsnotify.Watcher) {
	defer func() {
		fsw.Close()
		w.mu.Lock()
		w.active = false
		w.mu.Unlock()
		slog.Info("Parameter file watcher stopped", "path", w.path)
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Parameter file watcher context cancelled")
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Error("Parameter file watcher error", "error", err)
		}
	}
}

// handleEvent reloads the store when the watched file is written or recreated.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	slog.Info("Parameter file changed, reloading", "path", w.path, "event", event.Op.String())
	if err := w.store.LoadFile(w.fs, w.path); err != nil {
		slog.Error("Failed to reload parameter file", "path", w.path, "error", err)
	}
}
