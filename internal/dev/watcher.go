package dev

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the bundle watcher.
type WatcherConfig struct {
	// Paths are the files or directories to watch.
	Paths []string

	// Debounce is the quiet period before a change is reported.
	// Build tools write output in bursts; only the last write counts.
	Debounce time.Duration
}

// Watcher monitors the server bundle output for changes.
type Watcher struct {
	config   WatcherConfig
	onChange func(path string)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
}

// NewWatcher creates a new bundle watcher.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 200 * time.Millisecond
	}
	return &Watcher{config: config}
}

// OnChange sets the callback for file changes. The callback receives
// the path of the last file written in a burst.
func (w *Watcher) OnChange(fn func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching. It blocks until the context is cancelled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, path := range w.config.Paths {
		if err := addRecursive(fw, path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		lastHit string
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					addRecursive(fw, event.Name)
				}
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if isTransient(event.Name) {
				continue
			}
			lastHit = event.Name
			if timer == nil {
				timer = time.NewTimer(w.config.Debounce)
				timerCh = timer.C
			} else {
				timer.Reset(w.config.Debounce)
			}
		case <-timerCh:
			w.mu.Lock()
			callback := w.onChange
			w.mu.Unlock()
			if callback != nil {
				callback(lastHit)
			}
			timer = nil
			timerCh = nil
		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fw.Add(root)
	}
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fw.Add(p)
		}
		return nil
	})
}

// isTransient reports whether the path is an editor or build tool
// scratch file.
func isTransient(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
