package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"applanding/logger"
)

const debounceDelay = 500 * time.Millisecond

// Deriver backfills the derivative of dir/name when it is missing
type Deriver interface {
	Wants(name string) bool
	Derive(dir, name string) (string, bool)
}

// Watcher monitors the asset directory and derives WebP copies for
// raster files dropped into it
type Watcher struct {
	dir     string
	deriver Deriver
	watcher *fsnotify.Watcher
	events  chan Event

	mu       sync.Mutex
	debounce map[string]*time.Timer
	stopped  bool
}

// Event reports a derivative written by the watcher
type Event struct {
	Source     string
	Derivative string
}

// NewWatcher creates a new asset watcher for dir
func NewWatcher(dir string, deriver Deriver) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		dir:      dir,
		deriver:  deriver,
		watcher:  fsWatcher,
		events:   make(chan Event, 100),
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start begins monitoring the directory
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	logger.Logger.Info().Str("dir", w.dir).Msg("👀 Watching assets")

	go w.processEvents()

	return nil
}

// processEvents debounces fsnotify events per file
func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}

			name := filepath.Base(event.Name)
			// Skip temp files and anything we would not derive
			if strings.HasPrefix(name, ".") || !w.deriver.Wants(name) {
				continue
			}

			w.schedule(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if timer, exists := w.debounce[name]; exists {
		timer.Stop()
	}
	w.debounce[name] = time.AfterFunc(debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounce, name)
		w.mu.Unlock()

		w.handle(name)
	})
}

func (w *Watcher) handle(name string) {
	dst, ok := w.deriver.Derive(w.dir, name)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	select {
	case w.events <- Event{Source: filepath.Join(w.dir, name), Derivative: dst}:
	default:
		logger.Logger.Warn().Str("file", name).Msg("event channel full, dropping event")
	}
}

// Events returns the event channel
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop stops the watcher. Calls after the first are no-ops.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	for _, timer := range w.debounce {
		timer.Stop()
	}
	close(w.events)
	w.mu.Unlock()

	return w.watcher.Close()
}
