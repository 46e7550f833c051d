package filestore

import (
	"context"
	"sync"

	"github.com/ledgerd/node/peers"
)

// MemFileStore is an in-memory FileStore double used by tests across this
// module's packages; it is not a specified component (spec.md §1 excludes
// on-disk I/O) but gives the redownload driver's tests something real to
// assert against.
type MemFileStore struct {
	mu sync.Mutex

	Fetched []string
	Removed []string

	FetchErr error
}

// NewMemFileStore creates an empty double.
func NewMemFileStore() *MemFileStore {
	return &MemFileStore{}
}

// Fetch records the requested hashes and returns FetchErr, if set.
func (m *MemFileStore) Fetch(_ context.Context, hashes []string, _ map[peers.PeerId]peers.PeerData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FetchErr != nil {
		return m.FetchErr
	}
	m.Fetched = append(m.Fetched, hashes...)
	return nil
}

// Remove records the requested hashes.
func (m *MemFileStore) Remove(hashes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Removed = append(m.Removed, hashes...)
	return nil
}
