package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/wiregen/errors"
	"github.com/teranos/wiregen/logger"
)

// Watcher coalesces file change events into debounced reload callbacks.
// Watch mode points it at the model and config files and regenerates on
// every settled change.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func()

	mu     sync.Mutex
	timer  *time.Timer
	period time.Duration
}

// NewWatcher watches paths and calls onChange after changes settle. Every
// path must exist up front; editors that replace files on save keep working
// because create events count as changes.
func NewWatcher(paths []string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrapf(err, "creating file watcher")
	}
	for _, path := range paths {
		if err := fsw.Add(path); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "watching %s", path)
		}
	}
	return &Watcher{
		fsw:      fsw,
		onChange: onChange,
		period:   500 * time.Millisecond,
	}, nil
}

// Start begins delivering change events. It returns immediately; events
// are handled on a background goroutine until Stop.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop ends event delivery and releases the underlying watcher.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logger.Debugw("watched file changed",
				"file", event.Name,
				"op", event.Op.String())
			w.scheduleReload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warnw("file watcher error", "error", err)
		}
	}
}

// scheduleReload arms the debounce timer, replacing any pending one so a
// burst of writes produces a single reload.
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.period, w.onChange)
}
