// internal/watcher/watcher.go
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType string

const (
	EventCreate EventType = "create"
	EventModify EventType = "modify"
	EventDelete EventType = "delete"
)

// Event is one debounced workspace change.
type Event struct {
	Path string
	Type EventType
}

// Watcher watches the workspace directory for external changes so the
// file list and preview cache stay honest when files are edited outside
// the tool. Events are debounced per path; subdirectories created later
// are picked up automatically. Dot-directories (.git) are ignored.
type Watcher struct {
	root     string
	debounce time.Duration
	callback func(Event)
	watcher  *fsnotify.Watcher
	done     chan struct{}

	mu      sync.Mutex
	started bool
	closed  bool

	debounceMu sync.Mutex
	debouncer  map[string]*time.Timer
}

// New creates a Watcher for the workspace root.
func New(root string, debounce time.Duration, callback func(Event)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}

	// fsnotify watches are not recursive; directories that already exist
	// (the store creates them for nested writes) need their own watch.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || !d.IsDir() || path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if ignored(filepath.ToSlash(rel)) {
			return fs.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch subdirectories of %s: %w", root, err)
	}

	return &Watcher{
		root:      root,
		debounce:  debounce,
		callback:  callback,
		watcher:   fsw,
		done:      make(chan struct{}),
		debouncer: make(map[string]*time.Timer),
	}, nil
}

// Start begins delivering events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("watcher is closed")
	}
	if w.started {
		return fmt.Errorf("watcher already started")
	}
	w.started = true

	go w.watch()
	return nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	w.debounceMu.Lock()
	for _, timer := range w.debouncer {
		timer.Stop()
	}
	w.debouncer = make(map[string]*time.Timer)
	w.debounceMu.Unlock()

	return w.watcher.Close()
}

func (w *Watcher) watch() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if ignored(rel) {
		return
	}

	// Created directories need their own watch for nested writes.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watcher.Add(event.Name)
			return
		}
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventCreate
	case event.Op&fsnotify.Write != 0:
		eventType = EventModify
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		eventType = EventDelete
	default:
		return
	}

	w.emitDebounced(Event{Path: rel, Type: eventType})
}

// emitDebounced coalesces rapid successive events on the same path.
func (w *Watcher) emitDebounced(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debouncer[event.Path]; ok {
		timer.Stop()
	}
	w.debouncer[event.Path] = time.AfterFunc(w.debounce, func() {
		w.debounceMu.Lock()
		delete(w.debouncer, event.Path)
		w.debounceMu.Unlock()

		select {
		case <-w.done:
		default:
			w.callback(event)
		}
	})
}

func ignored(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
