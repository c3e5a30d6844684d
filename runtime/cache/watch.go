package cache

import (
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher proactively invalidates cache entries when their backing files
// change on disk, an additional fast path layered on top of the stat-hash
// check every Store.Lookup already performs. It never needs to be
// consulted for correctness — only for latency: a render that lands
// between a file edit and the watcher's event still gets a fresh read via
// the stat-hash comparison, just one Lookup later than with the watcher
// firing.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(path string)

	mu      sync.Mutex
	watched map[string]bool
	done    chan struct{}
	closed  bool
}

// NewWatcher creates a Watcher that calls onChange with the changed
// path whenever a watched file is written, removed, or renamed.
func NewWatcher(onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		watched:  map[string]bool{},
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				w.onChange(ev.Name)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Surfacing watcher errors through the render error log would
			// require plumbing an errlog.Log in here; the stat-hash check
			// is the correctness backstop regardless, so a watcher-level
			// error is dropped rather than threaded through.
		case <-w.done:
			return
		}
	}
}

// Watch starts watching path for changes; a no-op if already watched.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watched[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	w.watched[path] = true
	return nil
}

// Close stops the watcher and releases its underlying OS resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.fsw.Close()
}
