// Package filestore declares the Snapshot File Store collaborator
// (spec.md §1, §6): its on-disk implementation is explicitly out of
// scope. Only the interface the Redownload Driver (C8) depends on lives
// here, plus a no-op store for wiring and an in-memory double for tests.
package filestore

import (
	"context"

	"github.com/ledgerd/node/peers"
)

// FileStore fetches and removes snapshot files by hash. Fetch is given the
// restricted peer map selected by the majority group (C7/C8) so it can
// pull from peers known to hold the target state.
type FileStore interface {
	Fetch(ctx context.Context, hashes []string, restrictedPeers map[peers.PeerId]peers.PeerData) error
	Remove(hashes []string) error
}

// NullFileStore is a no-op FileStore for wiring contexts where snapshot
// file I/O genuinely never runs (e.g. the engine started without a real
// store configured).
type NullFileStore struct{}

// Fetch does nothing and never fails.
func (NullFileStore) Fetch(context.Context, []string, map[peers.PeerId]peers.PeerData) error {
	return nil
}

// Remove does nothing and never fails.
func (NullFileStore) Remove([]string) error { return nil }
