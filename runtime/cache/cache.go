package cache

import (
	"github.com/aledsdavies/teng/runtime/bytecode"
	"github.com/aledsdavies/teng/runtime/dictionary"
)

// DefaultCapacity bounds the number of freely-evictable entries per cache
// when a host doesn't specify one. Scaled down from the teacher's
// tree-sitter parse-tree cache default (internal/treesitter/cache.go's
// 5000) since a compiled Teng program or loaded dictionary is far smaller
// than a parse tree.
const DefaultCapacity = 512

// Caches bundles three parallel content-addressed caches: compiled
// programs, loaded dictionaries, and their configs. One set is shared
// across every render a host performs; each Render call only needs to
// borrow from it and release when done.
type Caches struct {
	Programs     *Store[*bytecode.Program]
	Dictionaries *Store[*dictionary.Dictionary]
	Configs      *Store[*dictionary.Config]

	watcher *Watcher
}

// New creates three empty caches, each capped at capacity freely-evictable
// entries — entries actively borrowed by an in-flight render are never
// evicted regardless of this cap, a soft cap only. capacity <= 0 uses
// DefaultCapacity.
func New(capacity int) *Caches {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Caches{
		Programs:     NewStore[*bytecode.Program](capacity),
		Dictionaries: NewStore[*dictionary.Dictionary](capacity),
		Configs:      NewStore[*dictionary.Config](capacity),
	}
}

// EnableWatch starts an fsnotify-backed watcher, an additional fast path
// for the `watchfiles` configuration flag, that proactively invalidates
// cached entries on write/remove/rename events. The stat-hash check in
// Store.Lookup remains the source of truth — a missed event only delays
// invalidation to the next Lookup, it never causes a stale read. Calling
// this more than once replaces the previous watcher.
func (c *Caches) EnableWatch() (*Watcher, error) {
	w, err := NewWatcher(c.invalidatePath)
	if err != nil {
		return nil, err
	}
	c.watcher = w
	return w, nil
}

// Watcher returns the watcher started by EnableWatch, or nil.
func (c *Caches) Watcher() *Watcher { return c.watcher }

func (c *Caches) invalidatePath(path string) {
	key := FileKey(path)
	c.Programs.Invalidate(key)
	c.Dictionaries.Invalidate(key)
	c.Configs.Invalidate(key)
}
