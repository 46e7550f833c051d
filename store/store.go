// Package store implements the keyed, insertion-ordered, capacity-bounded
// container that backs every substore of the consensus lifecycle (C1), and
// the unbounded pull-based mempool built on top of it (C2).
package store

import (
	"container/list"
	"sync"

	"github.com/ledgerd/node/common"
)

// unbounded is used as the capacity value for stores that never evict.
const unbounded = 0

// entry is the value held at each list element: the key is kept alongside
// the value so eviction can remove the matching map entry in O(1).
type entry[V any] struct {
	key   string
	value V
}

// Store is a concurrency-safe mapping key -> value, insertion ordered, with
// an optional capacity bound enforced by FIFO eviction of the oldest entry.
// Every exported method is individually thread-safe; callers that need a
// read-modify-write cycle across calls must hold an external lock (see
// LockRegistry).
//
// hashicorp/golang-lru evicts by recency of access, not by insertion order,
// so it cannot stand in here: a lookup must never rescue an entry from
// eviction the way an LRU touch would. container/list plus a map gives the
// plain FIFO the spec calls for.
type Store[V any] struct {
	mu       sync.RWMutex
	capacity int
	order    *list.List // front = oldest
	items    map[string]*list.Element
}

// New creates a Store with the given capacity. capacity <= 0 means
// unbounded (used by the mempool, C2).
func New[V any](capacity int) *Store[V] {
	if capacity < 0 {
		capacity = unbounded
	}
	return &Store[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Put inserts or overwrites a value, moving it to the back (newest) of the
// insertion order, then evicts from the front until capacity is respected.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.order.Remove(el)
	}

	el := s.order.PushBack(&entry[V]{key: key, value: value})
	s.items[key] = el

	s.evictLocked()
}

// Lookup returns the value for key and whether it was present.
func (s *Store[V]) Lookup(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	el, ok := s.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*entry[V]).value, true
}

// Update applies fn to the current value of key and stores the result,
// preserving the entry's position in insertion order. If key is absent,
// Update returns common.KeyNotFound unless empty is provided, in which case
// empty is inserted first and fn is applied to it, mirroring the source's
// `update(key, fn, empty)` variant.
func (s *Store[V]) Update(key string, fn func(V) V, empty *V) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		if empty == nil {
			var zero V
			return zero, common.NewStoreErr("store", common.KeyNotFound, key)
		}
		el = s.order.PushBack(&entry[V]{key: key, value: *empty})
		s.items[key] = el
		s.evictLocked()
	}

	e := el.Value.(*entry[V])
	e.value = fn(e.value)
	return e.value, nil
}

// Remove deletes key if present. Removal is unconditional and idempotent.
func (s *Store[V]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(key)
}

func (s *Store[V]) removeLocked(key string) {
	el, ok := s.items[key]
	if !ok {
		return
	}
	s.order.Remove(el)
	delete(s.items, key)
}

// Contains reports whether key is present.
func (s *Store[V]) Contains(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.items[key]
	return ok
}

// Size returns the number of entries currently stored.
func (s *Store[V]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// GetLastN returns up to n of the most recently inserted values, newest
// first.
func (s *Store[V]) GetLastN(n int) []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	res := make([]V, 0, n)
	for el := s.order.Back(); el != nil && len(res) < n; el = el.Prev() {
		res = append(res, el.Value.(*entry[V]).value)
	}
	return res
}

// All returns every value, oldest first.
func (s *Store[V]) All() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]V, 0, len(s.items))
	for el := s.order.Front(); el != nil; el = el.Next() {
		res = append(res, el.Value.(*entry[V]).value)
	}
	return res
}

// evictLocked drops entries from the front until capacity is respected.
// Must be called with mu held.
func (s *Store[V]) evictLocked() {
	if s.capacity <= unbounded {
		return
	}
	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		if oldest == nil {
			return
		}
		e := oldest.Value.(*entry[V])
		s.order.Remove(oldest)
		delete(s.items, e.key)
	}
}
