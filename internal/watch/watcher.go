// Package watch delivers debounced change notifications for the directory
// currently on screen, so the file pane refreshes when files appear or
// disappear underneath it.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DirectoryWatcher watches directories and coalesces bursts of filesystem
// events into single notifications per directory.
type DirectoryWatcher struct {
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	watching map[string]bool
	notify   chan string
	done     chan struct{}
	debounce time.Duration
}

// NewDirectoryWatcher starts a watcher with the given debounce interval.
// A non-positive interval falls back to 200ms.
func NewDirectoryWatcher(debounce time.Duration) (*DirectoryWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}

	dw := &DirectoryWatcher{
		watcher:  w,
		watching: make(map[string]bool),
		notify:   make(chan string, 10),
		done:     make(chan struct{}),
		debounce: debounce,
	}

	go dw.run()
	return dw, nil
}

func (dw *DirectoryWatcher) run() {
	lastEvent := make(map[string]time.Time)
	pending := make(map[string]bool)
	ticker := time.NewTicker(dw.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return

		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Write) {
				continue
			}

			// fsnotify reports the changed file; map it back to the watched
			// directory that contains it.
			parentDir := filepath.Dir(event.Name)

			dw.mu.Lock()
			switch {
			case dw.watching[parentDir]:
				lastEvent[parentDir] = time.Now()
				pending[parentDir] = true
			case dw.watching[event.Name]:
				// The watched directory itself changed.
				lastEvent[event.Name] = time.Now()
				pending[event.Name] = true
			}
			dw.mu.Unlock()

		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			zap.S().Debugw("fsnotify error", "err", err)

		case <-ticker.C:
			now := time.Now()
			for dir := range pending {
				if now.Sub(lastEvent[dir]) < dw.debounce {
					continue
				}
				select {
				case dw.notify <- dir:
				default:
					// Channel full; the pending entry stays and fires on a
					// later tick.
					continue
				}
				delete(pending, dir)
				delete(lastEvent, dir)
			}
		}
	}
}

// Watch adds a directory to the watch list. Watching an already watched
// directory is a no-op.
func (dw *DirectoryWatcher) Watch(path string) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.watching[path] {
		return nil
	}
	if err := dw.watcher.Add(path); err != nil {
		return err
	}
	dw.watching[path] = true
	return nil
}

// Unwatch removes a directory from the watch list. Removal errors are
// ignored; the path may already be gone.
func (dw *DirectoryWatcher) Unwatch(path string) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if !dw.watching[path] {
		return
	}
	if err := dw.watcher.Remove(path); err != nil {
		zap.S().Debugw("unwatch failed", "path", path, "err", err)
	}
	delete(dw.watching, path)
}

// UnwatchAll clears the watch list.
func (dw *DirectoryWatcher) UnwatchAll() {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	for path := range dw.watching {
		dw.watcher.Remove(path)
	}
	dw.watching = make(map[string]bool)
}

// Notify returns the channel carrying changed directory paths.
func (dw *DirectoryWatcher) Notify() <-chan string {
	return dw.notify
}

// Close shuts the watcher down.
func (dw *DirectoryWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}
