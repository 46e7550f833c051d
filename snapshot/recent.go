package snapshot

import "sync"

// RecentSnapshotsHolder is the atomic-reference holder for the local
// recentSnapshots list (spec.md §5): modify(fn) -> (new, returned) and
// set, guarded by a mutex since Go has no built-in atomic reference cell
// for arbitrary slice types.
type RecentSnapshotsHolder struct {
	mu       sync.Mutex
	recent   []RecentSnapshot
	capacity int
}

// NewRecentSnapshotsHolder creates a holder bounded to capacity entries
// (I4, processingConfig.recentSnapshotNumber).
func NewRecentSnapshotsHolder(capacity int) *RecentSnapshotsHolder {
	return &RecentSnapshotsHolder{capacity: capacity}
}

// Get returns the current list.
func (h *RecentSnapshotsHolder) Get() []RecentSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]RecentSnapshot, len(h.recent))
	copy(out, h.recent)
	return out
}

// Set overwrites the list outright, still truncated to capacity.
func (h *RecentSnapshotsHolder) Set(recent []RecentSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recent = truncate(recent, h.capacity)
}

// Modify applies fn to the current list under the lock and stores the
// result, returning both the new list and whatever fn chose to return as
// its second value.
func (h *RecentSnapshotsHolder) Modify(fn func([]RecentSnapshot) ([]RecentSnapshot, any)) (newState []RecentSnapshot, returned any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	newState, returned = fn(h.recent)
	h.recent = truncate(newState, h.capacity)
	return h.recent, returned
}

// Prepend adds (hash, height) to the front and truncates to capacity (I4),
// the update broadcastSnapshot performs before fanning out to peers.
func (h *RecentSnapshotsHolder) Prepend(hash string, height int64) []RecentSnapshot {
	newState, _ := h.Modify(func(cur []RecentSnapshot) ([]RecentSnapshot, any) {
		next := make([]RecentSnapshot, 0, len(cur)+1)
		next = append(next, RecentSnapshot{Hash: hash, Height: height})
		next = append(next, cur...)
		return next, nil
	})
	return newState
}

func truncate(recent []RecentSnapshot, capacity int) []RecentSnapshot {
	if capacity <= 0 || len(recent) <= capacity {
		return recent
	}
	return recent[:capacity]
}
