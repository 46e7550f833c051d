package store

import "sync"

// MemPool is the unbounded pending pool (C2): a Store specialised with an
// atomic Pull(count) that removes and returns up to count of the oldest
// entries in insertion order. Pull and Put both take the same mutex so a
// concurrent Put can never land between a Pull's read and its removal.
type MemPool[V any] struct {
	mu sync.Mutex
	s  *Store[V]
}

// NewMemPool creates an empty, unbounded pending pool.
func NewMemPool[V any]() *MemPool[V] {
	return &MemPool[V]{s: New[V](unbounded)}
}

// Put inserts a value at the back of the pool.
func (p *MemPool[V]) Put(key string, value V) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.s.Put(key, value)
}

// Lookup returns the value for key, if pending.
func (p *MemPool[V]) Lookup(key string) (V, bool) {
	return p.s.Lookup(key)
}

// Contains reports whether key is pending.
func (p *MemPool[V]) Contains(key string) bool {
	return p.s.Contains(key)
}

// Remove drops key from the pool, if present.
func (p *MemPool[V]) Remove(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.s.Remove(key)
}

// Size returns the number of pending entries.
func (p *MemPool[V]) Size() int {
	return p.s.Size()
}

// Pull atomically removes and returns up to count of the oldest pending
// entries. It returns ok=false only when the pool was already empty;
// otherwise it returns whatever was available, which may be shorter than
// count.
func (p *MemPool[V]) Pull(count int) (values []V, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if len(p.s.items) == 0 {
		return nil, false
	}

	oldest := p.s.order.Front()
	res := make([]V, 0, count)
	for oldest != nil && len(res) < count {
		e := oldest.Value.(*entry[V])
		res = append(res, e.value)
		next := oldest.Next()
		p.s.order.Remove(oldest)
		delete(p.s.items, e.key)
		oldest = next
	}
	return res, true
}
