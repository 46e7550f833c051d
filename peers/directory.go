// Package peers implements the Peer Directory (A5): a concurrency-safe
// {PeerId -> {endpoint, nodeType, state}} registry, adapted from the
// teacher's peers.PeerSet (github.com/ledgerd/node's babble ancestor).
// Unlike PeerSet, the directory is mutable in place — peers join and leave
// a live cluster — so it is guarded by a RWMutex rather than rebuilt
// immutably on every change.
package peers

import (
	"sync"

	"github.com/ledgerd/node/common"
)

// PeerId identifies a peer, e.g. its public key hex or node id.
type PeerId string

// NodeType distinguishes the role a peer plays in the cluster. Only Full
// peers are eligible for snapshot broadcast fanout (spec.md §4.C9.2).
type NodeType int

const (
	// Full peers hold complete history and participate in snapshot
	// verification and redownload.
	Full NodeType = iota
	// Light peers track only recent state.
	Light
	// Seed peers exist only to bootstrap directory membership.
	Seed
)

func (t NodeType) String() string {
	switch t {
	case Full:
		return "Full"
	case Light:
		return "Light"
	case Seed:
		return "Seed"
	default:
		return "Unknown"
	}
}

// ConnState is the directory's view of a peer's reachability, as reported
// by the (out-of-scope) whitelisting/health layer this package trusts.
type ConnState int

const (
	// Ready peers are reachable and eligible for RPC.
	Ready ConnState = iota
	// Unreachable peers have recently failed to respond.
	Unreachable
	// Excluded peers are administratively blocked (whitelisting, out of
	// scope here — this package only records the upstream fact).
	Excluded
)

// PeerData is what the directory knows about one peer.
type PeerData struct {
	Endpoint string
	NodeType NodeType
	State    ConnState
}

// Directory is the concurrency-safe {PeerId -> PeerData} registry.
type Directory struct {
	mu    sync.RWMutex
	peers map[PeerId]PeerData
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{peers: make(map[PeerId]PeerData)}
}

// Upsert adds or replaces the entry for id.
func (d *Directory) Upsert(id PeerId, data PeerData) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.peers[id] = data
}

// Remove deletes id from the directory, if present.
func (d *Directory) Remove(id PeerId) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.peers, id)
}

// Get returns the data for id, if known.
func (d *Directory) Get(id PeerId) (PeerData, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	data, ok := d.peers[id]
	return data, ok
}

// ReadyPeers returns every peer of the given type whose state is Ready.
func (d *Directory) ReadyPeers(nodeType NodeType) map[PeerId]PeerData {
	d.mu.RLock()
	defer d.mu.RUnlock()

	res := make(map[PeerId]PeerData)
	for id, data := range d.peers {
		if data.NodeType == nodeType && data.State == Ready {
			res[id] = data
		}
	}
	return res
}

// ReadyAll returns every peer, of any type, whose state is Ready. The
// verify and health-check loops poll recent-snapshot history cluster-wide,
// unlike the broadcast fanout which is restricted to Full peers.
func (d *Directory) ReadyAll() map[PeerId]PeerData {
	d.mu.RLock()
	defer d.mu.RUnlock()

	res := make(map[PeerId]PeerData)
	for id, data := range d.peers {
		if data.State == Ready {
			res[id] = data
		}
	}
	return res
}

// All returns a snapshot of the full directory.
func (d *Directory) All() map[PeerId]PeerData {
	d.mu.RLock()
	defer d.mu.RUnlock()

	res := make(map[PeerId]PeerData, len(d.peers))
	for id, data := range d.peers {
		res[id] = data
	}
	return res
}

// Restrict narrows a peer map down to the given ids. Used by the
// redownload driver (C8) to pass only the majority-group peers to the
// file store. ids comes from the cluster's self-reported peer ids (C7's
// diff.Peers), not from this node's own directory, so an id absent from
// all isn't a bug — it just means the cluster majority named a peer this
// node hasn't registered. Those are dropped from restricted and reported
// individually via missing, tagged UnknownPeer, so the caller can log
// them instead of silently downloading from a narrower peer set than it
// thinks it has.
func Restrict(all map[PeerId]PeerData, ids map[PeerId]struct{}) (restricted map[PeerId]PeerData, missing []error) {
	restricted = make(map[PeerId]PeerData, len(ids))
	for id := range ids {
		if data, ok := all[id]; ok {
			restricted[id] = data
			continue
		}
		missing = append(missing, common.NewStoreErr("PeerDirectory", common.UnknownPeer, string(id)))
	}
	return restricted, missing
}
