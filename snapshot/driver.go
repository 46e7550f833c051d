package snapshot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/ledgerd/node/filestore"
	"github.com/ledgerd/node/metrics"
	"github.com/ledgerd/node/nodestate"
	"github.com/ledgerd/node/peers"
	"github.com/sirupsen/logrus"
)

// zeroHash is the sentinel that is never fetched from the file store
// (spec.md §4.C8 step 2).
const zeroHash = ""

// Driver is the Redownload Driver (C8). It owns the single-flight flag
// that gives the whole engine I5 (at most one redownload episode at a
// time), regardless of whether the trigger was the broadcast loop, the
// verify loop, or the health check loop — all three call into the same
// Driver instance.
type Driver struct {
	pending atomic.Bool

	nodeState *nodestate.Service
	fileStore filestore.FileStore
	metrics   *metrics.Registry
	logger    *logrus.Entry
}

// NewDriver constructs a Driver around the collaborators it compensates
// across on failure: the node state service (to flip back to Ready) and
// the metrics registry (to record the outcome).
func NewDriver(nodeState *nodestate.Service, fileStore filestore.FileStore, m *metrics.Registry, logger *logrus.Entry) *Driver {
	return &Driver{
		nodeState: nodeState,
		fileStore: fileStore,
		metrics:   m,
		logger:    logger,
	}
}

// TryAcquire attempts to claim the single-flight flag, returning false if a
// redownload (or a caller gating a larger pass around one, like
// VerifyRecentSnapshots) already holds it.
func (d *Driver) TryAcquire() bool {
	return d.pending.CompareAndSwap(false, true)
}

// Release clears the single-flight flag. Callers must call this on every
// exit path after a successful TryAcquire.
func (d *Driver) Release() {
	d.pending.Store(false)
}

// RunEpisode acquires the single-flight flag itself, runs one redownload
// episode, and releases on every exit path. Returns false without error
// when another episode was already in flight.
func (d *Driver) RunEpisode(ctx context.Context, diff SnapshotDiff, restrictedPeers map[peers.PeerId]peers.PeerData) (ran bool, err error) {
	if !d.TryAcquire() {
		return false, nil
	}
	defer d.Release()

	return true, d.runEpisodeLocked(ctx, diff, restrictedPeers)
}

// RunEpisodeLocked runs one redownload episode assuming the caller already
// holds the single-flight flag (TryAcquire succeeded in a broader gate,
// e.g. VerifyRecentSnapshots). The caller remains responsible for Release.
func (d *Driver) RunEpisodeLocked(ctx context.Context, diff SnapshotDiff, restrictedPeers map[peers.PeerId]peers.PeerData) error {
	return d.runEpisodeLocked(ctx, diff, restrictedPeers)
}

func (d *Driver) runEpisodeLocked(ctx context.Context, diff SnapshotDiff, restrictedPeers map[peers.PeerId]peers.PeerData) error {
	d.nodeState.SetNodeState(nodestate.DownloadInProgress)

	hashes := make([]string, 0, len(diff.ToDownload))
	for _, s := range diff.ToDownload {
		if s.Hash == zeroHash {
			continue
		}
		hashes = append(hashes, s.Hash)
	}

	if err := d.fileStore.Fetch(ctx, hashes, restrictedPeers); err != nil {
		return d.fail(fmt.Errorf("fetching redownload snapshots: %w", err))
	}

	deleteHashes := make([]string, 0, len(diff.ToDelete))
	for _, s := range diff.ToDelete {
		deleteHashes = append(deleteHashes, s.Hash)
	}

	if err := d.fileStore.Remove(deleteHashes); err != nil {
		return d.fail(fmt.Errorf("removing stale snapshots: %w", err))
	}

	d.nodeState.SetNodeState(nodestate.Ready)
	d.metrics.ReDownloadFinished.Inc()

	return nil
}

// fail performs the compensating state reset and metric bump common to
// every failure path, then returns the original error for the caller to
// re-raise.
func (d *Driver) fail(err error) error {
	d.nodeState.SetNodeState(nodestate.Ready)
	d.metrics.ReDownloadError.Inc()
	d.logger.WithError(err).Error("redownload episode failed")
	return err
}
