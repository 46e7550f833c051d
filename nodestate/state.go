// Package nodestate implements the Node State Service (A8): the atomic
// node lifecycle state and its predicates, adapted from the teacher's
// node/state package (itself an atomic uint32 State wrapper).
package nodestate

import "sync/atomic"

// State is the node's lifecycle state.
type State uint32

const (
	// Ready is the normal serving state: the node gossips/responds and is
	// eligible to run cluster checks and verify recent snapshots.
	Ready State = iota
	// DownloadInProgress is set for the duration of a redownload episode
	// (C8). No new cluster check or verification may start while set.
	DownloadInProgress
	// Joining is the state of a node that has not yet joined its peer set.
	Joining
	// Suspended is initialised but not actively serving.
	Suspended
	// Shutdown is the terminal state.
	Shutdown
)

// String returns the human-readable name of a State.
func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case DownloadInProgress:
		return "DownloadInProgress"
	case Joining:
		return "Joining"
	case Suspended:
		return "Suspended"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Service wraps a State behind sync/atomic so GetNodeState/SetNodeState
// (spec.md §6) are safe to call from the broadcast loop, the health check
// loop, and the redownload driver concurrently.
type Service struct {
	state uint32
}

// NewService creates a Service initialised to Ready.
func NewService() *Service {
	return &Service{state: uint32(Ready)}
}

// GetNodeState returns the current state.
func (s *Service) GetNodeState() State {
	return State(atomic.LoadUint32(&s.state))
}

// SetNodeState sets the current state.
func (s *Service) SetNodeState(state State) {
	atomic.StoreUint32(&s.state, uint32(state))
}

// CanRunClusterCheck reports whether the health check loop (C10) may run a
// cluster consistency sweep from the current state. Excludes
// DownloadInProgress so a redownload already in flight is never doubly
// triggered via this path.
func CanRunClusterCheck(state State) bool {
	return state == Ready
}

// CanVerifyRecentSnapshots reports whether the broadcast/verify loop (C9)
// may start a verification pass from the current state.
func CanVerifyRecentSnapshots(state State) bool {
	return state == Ready
}
