// Package snapshot implements the Snapshot Majority & Redownload Engine:
// the majority state chooser (C6), the diff/threshold logic (C7), the
// redownload driver (C8), the broadcast & verify loop (C9) and the health
// check loop (C10).
package snapshot

import "github.com/ledgerd/node/peers"

// RecentSnapshot is a materialized state marker at a given height.
type RecentSnapshot struct {
	Hash   string
	Height int64
}

// SnapshotsAtHeight maps height to the hash a single proposer believes is
// correct at that height.
type SnapshotsAtHeight map[int64]string

// PeerProposal pairs a peer with its view of recent snapshot history.
type PeerProposal struct {
	PeerId    peers.PeerId
	Snapshots SnapshotsAtHeight
}

// Occurrences tallies how many of a total number of proposals at a given
// height agreed on Value.
type Occurrences[T comparable] struct {
	Value T
	N     int
	Of    int
}

// Percentage returns N/Of, or 0 when Of is 0.
func (o Occurrences[T]) Percentage() float64 {
	if o.Of == 0 {
		return 0
	}
	return float64(o.N) / float64(o.Of)
}

// SnapshotDiff describes the divergence between a node's own recent
// snapshot history and the cluster majority. Empty ToDelete or ToDownload
// means no redownload is warranted.
type SnapshotDiff struct {
	ToDelete   []RecentSnapshot
	ToDownload []RecentSnapshot
	Peers      map[peers.PeerId]struct{}
}

// SnapshotCreated is the broadcast payload announcing a newly created
// snapshot (spec.md §6).
type SnapshotCreated struct {
	Hash   string `json:"hash"`
	Height int64  `json:"height"`
}

// VerificationStatus is a peer's verdict on a broadcast SnapshotCreated.
type VerificationStatus string

const (
	// SnapshotCorrect means the peer's own view agrees with the broadcast.
	SnapshotCorrect VerificationStatus = "SnapshotCorrect"
	// SnapshotInvalid means the peer's own view disagrees at that height.
	SnapshotInvalid VerificationStatus = "SnapshotInvalid"
	// SnapshotHeightAbove means the peer is already past that height.
	SnapshotHeightAbove VerificationStatus = "SnapshotHeightAbove"
)

// SnapshotVerification is a peer's response to a /snapshot/verify request.
type SnapshotVerification struct {
	Id             string             `json:"id"`
	Status         VerificationStatus `json:"status"`
	RecentSnapshot []RecentSnapshot   `json:"recentSnapshot"`
}
