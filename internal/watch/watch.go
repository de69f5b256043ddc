// Package watch notifies the editor when a file it has open changes on
// disk outside the process, without ever touching the open File's
// in-memory state itself.
package watch

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// ExternalChange is posted to Events when fsnotify observes a write to,
// or the removal of, one of the watched paths. Index is the position of that path in the
// slice originally passed to New, so the editor can map it back to the
// open File without a path-string comparison on every event.
type ExternalChange struct {
	Index int
	Path  string
}

// Watcher wraps an fsnotify.Watcher scoped to a fixed set of file
// paths, forwarding write and remove events as ExternalChange onto a
// single consumer channel.
type Watcher struct {
	fsw    *fsnotify.Watcher
	paths  []string
	Events chan ExternalChange
	log    *slog.Logger
}

// New starts watching paths. The returned Watcher's Events channel is
// closed when Close is called or the underlying fsnotify watcher's
// event stream ends.
func New(paths []string, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: new: %w", err)
	}
	for _, p := range paths {
		if err := fsw.Add(p); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch: add %s: %w", p, err)
		}
	}
	w := &Watcher{
		fsw:    fsw,
		paths:  paths,
		Events: make(chan ExternalChange, 8),
		log:    log,
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.Events)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) {
				continue
			}
			idx := w.indexOf(ev.Name)
			if idx < 0 {
				continue
			}
			w.Events <- ExternalChange{Index: idx, Path: ev.Name}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warn("watch: fsnotify error", "error", err)
			}
		}
	}
}

func (w *Watcher) indexOf(path string) int {
	for i, p := range w.paths {
		if p == path {
			return i
		}
	}
	return -1
}

// Close stops watching and releases the underlying inotify/kqueue
// handle. Safe to call once.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
