package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobcopilot/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Reloader re-reads state from disk. ProfileStore implements it.
type Reloader interface {
	Reload() error
}

// ProfileWatcher reloads the profile when its file is edited outside the service
type ProfileWatcher struct {
	mu sync.Mutex

	path        string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	target   Reloader
	onReload func(error)
	logger   *errors.Logger

	running bool
}

// NewProfileWatcher creates a watcher for path that reloads target.
// onReload, when set, is called with the outcome of every reload.
func NewProfileWatcher(path string, target Reloader, debounceDelay time.Duration, onReload func(error), logger *errors.Logger) *ProfileWatcher {
	if debounceDelay <= 0 {
		debounceDelay = time.Second
	}
	return &ProfileWatcher{
		path:          path,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		target:        target,
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching the profile file
func (w *ProfileWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("profile watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Atomic replacements rename over the file, so the directory is watched
	// rather than the file itself.
	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	w.fsWatcher = watcher

	if stat, err := os.Stat(w.path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	w.running = true
	go w.watchLoop()

	w.logger.Info("Profile file watcher started",
		"file", w.path,
		"debounce_delay", w.debounceDelay)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *ProfileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		w.logger.LogError(err, "Failed to close profile file watcher")
		return err
	}
	w.logger.Info("Profile file watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *ProfileWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *ProfileWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.LogError(err, "Profile file watcher error")

		case <-w.reloadChan:
			if w.hasFileChanged() {
				err := w.target.Reload()
				if w.onReload != nil {
					w.onReload(err)
				}
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *ProfileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasFileChanged compares the modification time with the last one seen.
// Writes made by the service itself also land here and reload harmlessly.
func (w *ProfileWatcher) hasFileChanged() bool {
	stat, err := os.Stat(w.path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if stat.ModTime().Equal(w.lastModTime) {
		return false
	}
	w.lastModTime = stat.ModTime()
	return true
}

func (w *ProfileWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
