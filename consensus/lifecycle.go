// Package consensus implements the four-state Consensus Lifecycle Store
// (C4) and its Merkle Pool companion (C5), generic over any hashed item.
package consensus

import (
	"github.com/ledgerd/node/common"
	"github.com/ledgerd/node/store"
)

// Item is the minimal contract a consensus item (checkpoint, transaction)
// must satisfy: a stable string hash identity. Equality and ordering of
// items are defined entirely by Hash(), per spec.md §3.
type Item interface {
	Hash() string
}

// Status is the tagged enumeration of lifecycle states.
type Status int

const (
	// Pending is the initial state: submitted, not yet pulled for consensus.
	Pending Status = iota
	// InConsensus is reachable only via PullForConsensus.
	InConsensus
	// Accepted is the terminal, queryable state.
	Accepted
	// Unknown holds items evicted from InConsensus by ClearInConsensus.
	Unknown
)

// String implements fmt.Stringer for log-friendly output.
func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case InConsensus:
		return "InConsensus"
	case Accepted:
		return "Accepted"
	case Unknown:
		return "Unknown"
	default:
		return "UnknownStatus"
	}
}

// lock names used by the named lock registry (C3), exactly as spec.md §4.C3
// enumerates them.
const (
	lockInConsensusUpdate = "inConsensusUpdate"
	lockAcceptedUpdate    = "acceptedUpdate"
	lockUnknownUpdate     = "unknownUpdate"
	lockMerklePoolUpdate  = "merklePoolUpdate"
)

// DefaultCapacity is the fixed per-substore capacity for InConsensus,
// Accepted and Unknown (I2).
const DefaultCapacity = 240

// Store is the Consensus Lifecycle Store (C4): four substores plus a
// Merkle Pool, with every mutation to a locked substore passing through
// its named lock (C3).
type Store[A Item] struct {
	pending     *store.MemPool[A]
	inConsensus *store.Store[A]
	accepted    *store.Store[A]
	unknown     *store.Store[A]

	merkle *MerklePool

	locks *store.LockRegistry

	// compatMetricsIndexBug reproduces the observed getMetricsMap defect
	// (spec.md §9): when true, InConsensus/Accepted/Unknown metrics report
	// zero. See DESIGN.md for the Open Question resolution.
	compatMetricsIndexBug bool
}

// Option configures a Store at construction.
type Option[A Item] func(*Store[A])

// WithCapacity overrides DefaultCapacity for InConsensus/Accepted/Unknown.
func WithCapacity[A Item](capacity int) Option[A] {
	return func(s *Store[A]) {
		s.inConsensus = store.New[A](capacity)
		s.accepted = store.New[A](capacity)
		s.unknown = store.New[A](capacity)
	}
}

// WithMetricsIndexBugCompat toggles reproduction of the documented
// getMetricsMap defect. Default true.
func WithMetricsIndexBugCompat[A Item](enabled bool) Option[A] {
	return func(s *Store[A]) {
		s.compatMetricsIndexBug = enabled
	}
}

// New builds a Consensus Lifecycle Store with DefaultCapacity substores.
func New[A Item](opts ...Option[A]) *Store[A] {
	s := &Store[A]{
		pending:     store.NewMemPool[A](),
		inConsensus: store.New[A](DefaultCapacity),
		accepted:    store.New[A](DefaultCapacity),
		unknown:     store.New[A](DefaultCapacity),
		merkle:      newMerklePool(),
		locks: store.NewLockRegistry(
			lockInConsensusUpdate,
			lockAcceptedUpdate,
			lockUnknownUpdate,
			lockMerklePoolUpdate,
		),
		compatMetricsIndexBug: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Put inserts a into Pending. The mempool is internally concurrent, so no
// named lock is taken.
func (s *Store[A]) Put(a A) {
	s.pending.Put(a.Hash(), a)
}

// PutStatus inserts a into the substore for status. Pending is unlocked;
// Accepted and Unknown take their named locks. InConsensus is not
// reachable here — only PullForConsensus populates it. Any other status
// value fails with UnknownStatus.
func (s *Store[A]) PutStatus(a A, status Status) error {
	switch status {
	case Pending:
		s.pending.Put(a.Hash(), a)
		return nil
	case Accepted:
		s.locks.WithLock(lockAcceptedUpdate, func() {
			s.accepted.Put(a.Hash(), a)
		})
		return nil
	case Unknown:
		s.locks.WithLock(lockUnknownUpdate, func() {
			s.unknown.Put(a.Hash(), a)
		})
		return nil
	case InConsensus:
		return common.NewStoreErr("consensus", common.UnknownStatus, a.Hash())
	default:
		return common.NewStoreErr("consensus", common.UnknownStatus, a.Hash())
	}
}

// UpdateStatus runs a locked update against the substore for status, using
// empty as the seed value when key is absent (mirrors
// `update(key, fn, empty, status)`). Pending is unlocked.
func (s *Store[A]) UpdateStatus(key string, fn func(A) A, empty *A, status Status) (A, error) {
	var zero A

	switch status {
	case Pending:
		v, ok := s.pending.Lookup(key)
		if !ok {
			if empty == nil {
				return zero, common.NewStoreErr("consensus", common.KeyNotFound, key)
			}
			v = *empty
		}
		v = fn(v)
		s.pending.Put(key, v)
		return v, nil
	case InConsensus:
		var res A
		var err error
		s.locks.WithLock(lockInConsensusUpdate, func() {
			res, err = s.inConsensus.Update(key, fn, empty)
		})
		return res, err
	case Accepted:
		var res A
		var err error
		s.locks.WithLock(lockAcceptedUpdate, func() {
			res, err = s.accepted.Update(key, fn, empty)
		})
		return res, err
	case Unknown:
		var res A
		var err error
		s.locks.WithLock(lockUnknownUpdate, func() {
			res, err = s.unknown.Update(key, fn, empty)
		})
		return res, err
	default:
		return zero, common.NewStoreErr("consensus", common.UnknownStatus, key)
	}
}

// Update is the status-oblivious update: it tries Pending, then
// InConsensus, then Accepted, then Unknown, stopping at the first substore
// that contains key. It returns ok=false if key is absent everywhere.
func (s *Store[A]) Update(key string, fn func(A) A) (updated A, ok bool) {
	if s.pending.Contains(key) {
		v, _ := s.pending.Lookup(key)
		v = fn(v)
		s.pending.Put(key, v)
		return v, true
	}

	if s.inConsensus.Contains(key) {
		var res A
		var err error
		s.locks.WithLock(lockInConsensusUpdate, func() {
			res, err = s.inConsensus.Update(key, fn, nil)
		})
		if err == nil {
			return res, true
		}
	}

	if s.accepted.Contains(key) {
		var res A
		var err error
		s.locks.WithLock(lockAcceptedUpdate, func() {
			res, err = s.accepted.Update(key, fn, nil)
		})
		if err == nil {
			return res, true
		}
	}

	if s.unknown.Contains(key) {
		var res A
		var err error
		s.locks.WithLock(lockUnknownUpdate, func() {
			res, err = s.unknown.Update(key, fn, nil)
		})
		if err == nil {
			return res, true
		}
	}

	var zero A
	return zero, false
}

// Accept moves a into Accepted and unconditionally removes its hash from
// InConsensus and Unknown, in that order, under their respective locks
// (I3). Both removals are idempotent, so calling Accept twice on the same
// item leaves it in Accepted exactly once and absent from InConsensus and
// Unknown (S7); the second call re-puts it, moving it to the newest position
// in Accepted's insertion order.
func (s *Store[A]) Accept(a A) {
	s.locks.WithLock(lockAcceptedUpdate, func() {
		s.accepted.Put(a.Hash(), a)
	})

	s.locks.WithLock(lockInConsensusUpdate, func() {
		s.inConsensus.Remove(a.Hash())
	})

	s.locks.WithLock(lockUnknownUpdate, func() {
		s.unknown.Remove(a.Hash())
	})
}

// PullForConsensus pulls up to count pending items and transfers each into
// InConsensus under the named lock, returning the list actually
// transferred.
func (s *Store[A]) PullForConsensus(count int) []A {
	pulled, ok := s.pending.Pull(count)
	if !ok {
		return nil
	}

	s.locks.WithLock(lockInConsensusUpdate, func() {
		for _, a := range pulled {
			s.inConsensus.Put(a.Hash(), a)
		}
	})

	return pulled
}

// ClearInConsensus moves every present hash from InConsensus to Unknown.
func (s *Store[A]) ClearInConsensus(hashes []string) {
	for _, h := range hashes {
		var moved A
		var present bool

		s.locks.WithLock(lockInConsensusUpdate, func() {
			v, ok := s.inConsensus.Lookup(h)
			if ok {
				s.inConsensus.Remove(h)
				moved, present = v, true
			}
		})

		if present {
			s.locks.WithLock(lockUnknownUpdate, func() {
				s.unknown.Put(h, moved)
			})
		}
	}
}

// ReturnToPending moves every present hash from InConsensus back to
// Pending (unlocked put, per Pending's semantics).
func (s *Store[A]) ReturnToPending(hashes []string) {
	for _, h := range hashes {
		var moved A
		var present bool

		s.locks.WithLock(lockInConsensusUpdate, func() {
			v, ok := s.inConsensus.Lookup(h)
			if ok {
				s.inConsensus.Remove(h)
				moved, present = v, true
			}
		})

		if present {
			s.pending.Put(h, moved)
		}
	}
}

// Lookup probes Accepted, then InConsensus, then Pending, then Unknown, and
// returns the first hit.
func (s *Store[A]) Lookup(key string) (A, bool) {
	if v, ok := s.accepted.Lookup(key); ok {
		return v, true
	}
	if v, ok := s.inConsensus.Lookup(key); ok {
		return v, true
	}
	if v, ok := s.pending.Lookup(key); ok {
		return v, true
	}
	if v, ok := s.unknown.Lookup(key); ok {
		return v, true
	}
	var zero A
	return zero, false
}

// LookupStatus performs a targeted lookup against the substore for status.
func (s *Store[A]) LookupStatus(key string, status Status) (A, bool) {
	switch status {
	case Pending:
		return s.pending.Lookup(key)
	case InConsensus:
		return s.inConsensus.Lookup(key)
	case Accepted:
		return s.accepted.Lookup(key)
	case Unknown:
		return s.unknown.Lookup(key)
	default:
		var zero A
		return zero, false
	}
}

// Contains reports whether key is present in any substore.
func (s *Store[A]) Contains(key string) bool {
	return s.pending.Contains(key) ||
		s.inConsensus.Contains(key) ||
		s.accepted.Contains(key) ||
		s.unknown.Contains(key)
}

// Count returns the total number of items across all substores.
func (s *Store[A]) Count() int {
	return s.pending.Size() + s.inConsensus.Size() + s.accepted.Size() + s.unknown.Size()
}

// CountStatus returns the number of items in the substore for status.
func (s *Store[A]) CountStatus(status Status) int {
	switch status {
	case Pending:
		return s.pending.Size()
	case InConsensus:
		return s.inConsensus.Size()
	case Accepted:
		return s.accepted.Size()
	case Unknown:
		return s.unknown.Size()
	default:
		return 0
	}
}

// GetMetricsMap reports per-status counts. When compatMetricsIndexBug is
// set (the default), it reproduces the observed defect where InConsensus,
// Accepted and Unknown always report zero — see spec.md §9 and
// DESIGN.md's Open Questions.
func (s *Store[A]) GetMetricsMap() map[string]int {
	if s.compatMetricsIndexBug {
		return map[string]int{
			"pending":     s.pending.Size(),
			"inConsensus": 0,
			"accepted":    0,
			"unknown":     0,
		}
	}
	return map[string]int{
		"pending":     s.pending.Size(),
		"inConsensus": s.inConsensus.Size(),
		"accepted":    s.accepted.Size(),
		"unknown":     s.unknown.Size(),
	}
}

// GetLast20Accepted returns the newest 20 accepted items by insertion
// order.
func (s *Store[A]) GetLast20Accepted() []A {
	return s.accepted.GetLastN(20)
}

// FindHashesByMerkleRoot delegates to the Merkle Pool (C5).
func (s *Store[A]) FindHashesByMerkleRoot(root string) []string {
	return s.merkle.Lookup(root)
}

// AddMerkleRoot records that hash belongs under merkleRoot.
func (s *Store[A]) AddMerkleRoot(merkleRoot, hash string) {
	s.locks.WithLock(lockMerklePoolUpdate, func() {
		s.merkle.add(merkleRoot, hash)
	})
}
