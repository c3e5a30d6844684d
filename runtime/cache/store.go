// Package cache implements Teng's three parallel content-addressed
// caches — programs, dictionaries, configurations — with LRU eviction,
// reference counting for in-use entries, dependency-serial invalidation,
// and an at-most-one-concurrent-build guarantee per key.
//
// The eviction-candidate ordering is backed by
// github.com/hashicorp/golang-lru/v2 (the same library the richest
// example repo's tree-sitter parse cache uses,
// internal/treesitter/cache.go); the refcount/valid/serial bookkeeping
// LRU-by-itself cannot express — an entry must never be evicted while a
// render still holds it — is hand-written, grounded on
// runtime/decorators/connection_pool.go's refcounted pool pattern and
// runtime/vault/vault.go's keyed store with generation/invalidation
// counters.
package cache

import (
	"fmt"
	"hash/fnv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/aledsdavies/teng/runtime/fs"
)

// numShards partitions each Store's locking by key: readers and writers
// share a per-cache lock with reader/writer semantics, and sharding by key
// is an equivalent, finer-grained alternative. Sharding is chosen here over
// one global RWMutex because every Store operation
// (Lookup, Release) mutates refcount/LRU-recency state, leaving no
// read-only path a plain RWMutex's RLock could serve; partitioning by key
// still lets unrelated keys proceed without contending on the same lock.
const numShards = 16

// Staleable is implemented by every value type a Store holds
// (*bytecode.Program, *dictionary.Dictionary, *dictionary.Config): it
// reports whether the file(s) it was built from have changed since, the
// re-stat check a Lookup performs before handing out a cached entry.
type Staleable interface {
	IsStale(reader fs.Reader) bool
}

// Entry is one cached artifact: its value, the serial it was built at, the
// dependency serial it was built against, how many active borrows it has,
// and whether it has since been superseded.
type Entry[V any] struct {
	Value            V
	Serial           uint64
	DependencySerial uint64
	RefCount         int
	Valid            bool
}

// Handle is a borrowed reference into a Store: the caller holds a
// borrowed pointer to the cached value, and the entry cannot be destroyed
// while its refcount is nonzero. The holder must call Release exactly
// once.
type Handle[V any] struct {
	shard *shard[V]
	key   string
	entry *Entry[V]
}

// Value returns the cached artifact.
func (h *Handle[V]) Value() V { return h.entry.Value }

// Serial returns the entry's own build serial.
func (h *Handle[V]) Serial() uint64 { return h.entry.Serial }

// DependencySerial returns the serial of the entry this one was built
// against: programs record config+dict serial, dictionaries record config
// serial, configurations record 0.
func (h *Handle[V]) DependencySerial() uint64 { return h.entry.DependencySerial }

// Release decrements the handle's reference count; if it reaches zero and
// the entry has since been superseded or invalidated, it is destroyed.
func (h *Handle[V]) Release() {
	h.shard.release(h.key, h.entry)
}

// shard owns one lock-partition's worth of entries. The embedded LRU
// tracks recency among exactly the keys currently free to evict
// (RefCount == 0, Valid == true) — a borrowed or invalidated entry is
// simply absent from it, so the library's own capacity-triggered eviction
// can never pick one out from under an active reader.
type shard[V any] struct {
	mu        sync.Mutex
	entries   map[string]*Entry[V]
	lru       *lru.Cache[string, struct{}]
	serialSeq map[string]uint64
}

func newShard[V any](capacity int) *shard[V] {
	if capacity < 1 {
		capacity = 1
	}
	s := &shard[V]{
		entries:   map[string]*Entry[V]{},
		serialSeq: map[string]uint64{},
	}
	s.lru, _ = lru.NewWithEvict[string, struct{}](capacity, func(key string, _ struct{}) {
		delete(s.entries, key)
	})
	return s
}

func (s *shard[V]) lookup(key string, requiredDep *uint64, reader fs.Reader, staleCheck bool) (*Handle[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.Valid {
		return nil, false
	}
	if staleCheck && reader != nil {
		if sv, ok := any(e.Value).(Staleable); ok && sv.IsStale(reader) {
			s.invalidateLocked(key, e)
			return nil, false
		}
	}
	if requiredDep != nil && e.DependencySerial != *requiredDep {
		return nil, false
	}
	if e.RefCount == 0 {
		s.lru.Remove(key)
	}
	e.RefCount++
	return &Handle[V]{shard: s, key: key, entry: e}, true
}

func (s *shard[V]) insert(key string, value V, dependencySerial uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[key]; ok {
		old.Valid = false
		s.lru.Remove(key)
		if old.RefCount == 0 {
			delete(s.entries, key)
		}
	}
	s.serialSeq[key]++
	e := &Entry[V]{
		Value:            value,
		Serial:           s.serialSeq[key],
		DependencySerial: dependencySerial,
		Valid:            true,
	}
	s.entries[key] = e
	// Enforces capacity internally: Add evicts the oldest entry in this
	// LRU (always refcount-zero, by construction) once over the shard's
	// capacity; if none are present (every entry currently borrowed), it
	// simply grows past the soft cap.
	s.lru.Add(key, struct{}{})
}

func (s *shard[V]) release(key string, e *Entry[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.RefCount > 0 {
		e.RefCount--
	}
	if e.RefCount > 0 {
		return
	}
	cur, ok := s.entries[key]
	if !ok || cur != e {
		return // superseded entry, last reader just left; already detached
	}
	if e.Valid {
		s.lru.Add(key, struct{}{})
	} else {
		delete(s.entries, key)
	}
}

func (s *shard[V]) invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.invalidateLocked(key, e)
	}
}

func (s *shard[V]) invalidateLocked(key string, e *Entry[V]) {
	e.Valid = false
	s.lru.Remove(key)
	if e.RefCount == 0 {
		delete(s.entries, key)
	}
}

func (s *shard[V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Store is one of the three parallel caches, generic over the artifact it
// holds.
type Store[V any] struct {
	shards [numShards]*shard[V]
	flight singleflight.Group
}

// NewStore creates a Store whose freely-evictable (unborrowed) entries
// are capped at capacity, split across numShards lock partitions.
func NewStore[V any](capacity int) *Store[V] {
	perShard := capacity / numShards
	st := &Store[V]{}
	for i := range st.shards {
		st.shards[i] = newShard[V](perShard)
	}
	return st
}

func shardIndex(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

func (s *Store[V]) shardFor(key string) *shard[V] { return s.shards[shardIndex(key)] }

// Lookup implements the cache's lookup policy: miss if absent,
// miss-and-invalidate if staleCheck is set and the entry's Staleable
// reports a change, miss if requiredDep is given and doesn't match,
// otherwise borrow and return a Handle. Pass a nil reader (or
// staleCheck=false) to skip the re-stat, e.g. when `watchfiles` is
// disabled.
func (s *Store[V]) Lookup(key string, requiredDep *uint64, reader fs.Reader, staleCheck bool) (*Handle[V], bool) {
	return s.shardFor(key).lookup(key, requiredDep, reader, staleCheck)
}

// Invalidate marks key's entry stale, destroying it immediately if no one
// currently holds it. The `watchfiles` fast path wires this to filesystem
// change notifications; see Watcher.
func (s *Store[V]) Invalidate(key string) {
	s.shardFor(key).invalidate(key)
}

// GetOrBuild looks key up, and on a miss runs build under a per-key
// singleflight promise so concurrent callers for the same key wait for
// one compile rather than each compiling independently: at most one
// concurrent build per fingerprint.
func (s *Store[V]) GetOrBuild(key string, requiredDep *uint64, reader fs.Reader, staleCheck bool, build func() (V, uint64, error)) (*Handle[V], error) {
	if h, ok := s.Lookup(key, requiredDep, reader, staleCheck); ok {
		return h, nil
	}
	sh := s.shardFor(key)
	_, err, _ := s.flight.Do(key, func() (any, error) {
		if h, ok := s.Lookup(key, requiredDep, reader, staleCheck); ok {
			h.Release()
			return nil, nil
		}
		val, dep, buildErr := build()
		if buildErr != nil {
			return nil, buildErr
		}
		sh.insert(key, val, dep)
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	h, ok := s.Lookup(key, nil, nil, false)
	if !ok {
		return nil, fmt.Errorf("cache: build for %q produced no usable entry", key)
	}
	return h, nil
}

// Len reports the total number of live entries across every shard
// (borrowed, free, and soft-cap-overflowing alike).
func (s *Store[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.len()
	}
	return n
}
