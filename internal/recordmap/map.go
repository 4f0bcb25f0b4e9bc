// Package recordmap is the concurrent key->record map the DB facade holds:
// a sharded, fine-grained-locking map. Multiple readers and per-key
// writers proceed without a single global lock, and iteration releases
// each shard's lock before handing entries to the caller so it can never
// deadlock against a concurrent single-key write.
package recordmap

import (
	"errors"
	"hash/fnv"
	"sort"
	"sync"
)

const shardCount = 32

// ErrLockFailed is the panic value TryModify raises when a shard's lock
// cannot be acquired immediately. core.ErrLockFailed is this same sentinel,
// re-exported so callers above this package can errors.Is against it from
// a recovered panic without importing recordmap directly.
var ErrLockFailed = errors.New("recordmap: could not acquire lock for key update")

type shard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

// Map is a sharded, concurrency-safe string-keyed map.
type Map[V any] struct {
	shards [shardCount]*shard[V]
}

// New returns an empty Map ready for use.
func New[V any]() *Map[V] {
	m := &Map[V]{}
	for i := range m.shards {
		m.shards[i] = &shard[V]{m: make(map[string]V)}
	}
	return m
}

func shardIndex(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[shardIndex(key)]
}

// Insert stores value under key, replacing and returning any previous
// value. This is raw insert-or-replace; callers that need insert-if-absent
// semantics (as the DB facade's public Insert does) must check Get first.
func (m *Map[V]) Insert(key string, value V) (old V, had bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had = s.m[key]
	s.m[key] = value
	return old, had
}

// Remove deletes key, reporting whether it was present.
func (m *Map[V]) Remove(key string) (old V, had bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, had = s.m[key]
	if had {
		delete(s.m, key)
	}
	return old, had
}

// Get returns a shared-reference read of key's value.
func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Len returns the total number of entries across all shards.
func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Entry is one (key, value) pair yielded by Range or Snapshot.
type Entry[V any] struct {
	Key   string
	Value V
}

// Range calls fn for every entry in the map. Each shard is locked only long
// enough to copy its contents; fn is called with no shard lock held, so a
// concurrent TryModify or Insert/Remove on a different (or even the same)
// key cannot deadlock against an in-progress Range. The iteration order
// across shards is not guaranteed; callers that need a stable order should
// use Snapshot.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		entries := make([]Entry[V], 0, len(s.m))
		for k, v := range s.m {
			entries = append(entries, Entry[V]{Key: k, Value: v})
		}
		s.mu.RUnlock()
		for _, e := range entries {
			if !fn(e.Key, e.Value) {
				return
			}
		}
	}
}

// Snapshot returns every entry in the map sorted ascending by key.
func (m *Map[V]) Snapshot() []Entry[V] {
	var out []Entry[V]
	m.Range(func(k string, v V) bool {
		out = append(out, Entry[V]{Key: k, Value: v})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TryModify attempts to acquire key's shard exclusively without blocking
// and, if acquired and key is present, applies fn to a pointer to the
// stored value in place. It panics with ErrLockFailed if the shard's lock
// cannot be acquired immediately: that reflects a programming error
// (reentrant lock on the same shard), not a runtime condition callers are
// expected to recover from. It returns false (no panic) if the lock is
// acquired but key is absent.
func (m *Map[V]) TryModify(key string, fn func(v *V)) bool {
	s := m.shardFor(key)
	if !s.mu.TryLock() {
		panic(ErrLockFailed)
	}
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return false
	}
	fn(&v)
	s.m[key] = v
	return true
}
