package snapshot

import (
	"context"
	"sync"

	"github.com/ledgerd/node/nodestate"
	"github.com/ledgerd/node/peers"
	"github.com/sirupsen/logrus"
)

// PeerClient is the subset of transport.Client the broadcast and verify
// loops need. Declared here rather than imported from transport, since
// transport imports this package for its DTOs (SnapshotCreated,
// SnapshotVerification, RecentSnapshot) — importing it back would cycle.
// transport.Client satisfies this interface structurally.
type PeerClient interface {
	VerifySnapshot(ctx context.Context, peer peers.PeerData, created SnapshotCreated) (*SnapshotVerification, error)
	RecentSnapshots(ctx context.Context, peer peers.PeerData) ([]RecentSnapshot, error)
}

// BroadcastLoop is the broadcast & verify loop (C9): it announces newly
// created snapshots to Full peers and, independently, polls the cluster's
// recent-snapshot history to catch drift the broadcast path missed.
type BroadcastLoop struct {
	directory *peers.Directory
	client    PeerClient
	driver    *Driver
	recent    *RecentSnapshotsHolder
	nodeState *nodestate.Service
	logger    *logrus.Entry

	snapshotHeightRedownloadDelayInterval int64
	maxInvalidSnapshotRate                float64
}

// NewBroadcastLoop wires the collaborators C9 needs. delayInterval and
// maxInvalidSnapshotRate come from processingConfig (A1).
func NewBroadcastLoop(
	directory *peers.Directory,
	client PeerClient,
	driver *Driver,
	recent *RecentSnapshotsHolder,
	nodeState *nodestate.Service,
	logger *logrus.Entry,
	delayInterval int64,
	maxInvalidSnapshotRate float64,
) *BroadcastLoop {
	return &BroadcastLoop{
		directory: directory,
		client:    client,
		driver:    driver,
		recent:    recent,
		nodeState: nodeState,
		logger:    logger,

		snapshotHeightRedownloadDelayInterval: delayInterval,
		maxInvalidSnapshotRate:                maxInvalidSnapshotRate,
	}
}

// BroadcastSnapshot runs C9's first path: prepend the new snapshot to the
// local history, fan the announcement out to every ready Full peer, and
// act on what comes back.
//
//  1. Prepend (hash, height) to recentSnapshots (I4).
//  2. POST /snapshot/verify to each ready Full peer.
//  3. Feed the responses into C7; if it signals a redownload, drive C8 and
//     overwrite recentSnapshots with the cluster majority it settled on.
func (b *BroadcastLoop) BroadcastSnapshot(ctx context.Context, hash string, height int64) {
	ownRecent := b.recent.Prepend(hash, height)

	readyFull := b.directory.ReadyPeers(peers.Full)
	responses := b.collectVerifications(ctx, readyFull, SnapshotCreated{Hash: hash, Height: height})

	b.actOnResponses(ctx, responses, ownRecent, readyFull)
}

// collectVerifications fans VerifySnapshot out to every peer concurrently,
// tolerating individual failures as a missing (nil) response rather than
// failing the whole round.
func (b *BroadcastLoop) collectVerifications(ctx context.Context, readyPeers map[peers.PeerId]peers.PeerData, created SnapshotCreated) []*SnapshotVerification {
	ids := make([]peers.PeerId, 0, len(readyPeers))
	for id := range readyPeers {
		ids = append(ids, id)
	}

	results := make([]*SnapshotVerification, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id peers.PeerId) {
			defer wg.Done()
			v, err := b.client.VerifySnapshot(ctx, readyPeers[id], created)
			if err != nil {
				b.logger.WithError(err).WithField("peer", id).Warn("snapshot verify request failed")
				return
			}
			results[i] = v
		}(i, id)
	}
	wg.Wait()

	return results
}

// actOnResponses implements the shared tail of BroadcastSnapshot and
// VerifyRecentSnapshots: turn a set of peer responses into a diff, and if
// C7 says to redownload, drive C8 and settle recentSnapshots on the
// cluster majority.
func (b *BroadcastLoop) actOnResponses(ctx context.Context, responses []*SnapshotVerification, ownRecent []RecentSnapshot, readyPeers map[peers.PeerId]peers.PeerData) {
	cluster := make([]ClusterSnapshots, 0, len(responses))
	for _, r := range responses {
		if r == nil {
			continue
		}
		cluster = append(cluster, ClusterSnapshots{PeerId: peers.PeerId(r.Id), Snapshots: r.RecentSnapshot})
	}
	if len(cluster) == 0 {
		return
	}

	diff := CompareSnapshotState(ownRecent, cluster)
	if !ShouldReDownload(ownRecent, diff, b.snapshotHeightRedownloadDelayInterval) {
		return
	}

	majority, _ := MajorityStateFromCluster(cluster)
	restricted, missing := peers.Restrict(readyPeers, diff.Peers)
	for _, err := range missing {
		b.logger.WithError(err).Warn("cluster-reported peer absent from directory")
	}

	ran, err := b.driver.RunEpisode(ctx, diff, restricted)
	if err != nil {
		b.logger.WithError(err).Error("redownload episode failed during broadcast")
		return
	}
	if ran {
		b.recent.Set(majority)
	}
}

// VerifyRecentSnapshots is C9's second path: independently of any new
// broadcast, pull every ready peer's recent-snapshot history and check it
// against our own.
//
//  1. Gate on the single-flight flag — a redownload already in flight
//     makes a fresh verification pass pointless.
//  2. Bail out if the node state doesn't permit verification right now.
//  3. GET /snapshot/recent from each ready peer.
//  4. Feed the responses into the same C7/C8 tail as BroadcastSnapshot.
func (b *BroadcastLoop) VerifyRecentSnapshots(ctx context.Context) {
	if !b.driver.TryAcquire() {
		return
	}
	defer b.driver.Release()

	if !nodestate.CanVerifyRecentSnapshots(b.nodeState.GetNodeState()) {
		return
	}

	ready := b.directory.ReadyAll()
	ownRecent := b.recent.Get()

	ids := make([]peers.PeerId, 0, len(ready))
	for id := range ready {
		ids = append(ids, id)
	}

	cluster := make([]ClusterSnapshots, 0, len(ids))
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id peers.PeerId) {
			defer wg.Done()
			recent, err := b.client.RecentSnapshots(ctx, ready[id])
			if err != nil {
				b.logger.WithError(err).WithField("peer", id).Warn("recent-snapshots request failed")
				return
			}
			mu.Lock()
			cluster = append(cluster, ClusterSnapshots{PeerId: id, Snapshots: recent})
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	if len(cluster) == 0 {
		return
	}

	diff := CompareSnapshotState(ownRecent, cluster)
	if !ShouldReDownload(ownRecent, diff, b.snapshotHeightRedownloadDelayInterval) {
		return
	}

	majority, _ := MajorityStateFromCluster(cluster)
	restricted, missing := peers.Restrict(ready, diff.Peers)
	for _, err := range missing {
		b.logger.WithError(err).Warn("cluster-reported peer absent from directory")
	}

	if err := b.driver.RunEpisodeLocked(ctx, diff, restricted); err != nil {
		b.logger.WithError(err).Error("redownload episode failed during verification")
		return
	}
	b.recent.Set(majority)
}

// ShouldRunClusterCheck reports whether enough peers flagged a broadcast
// as invalid to warrant an out-of-band cluster consistency check (C10),
// rather than waiting for the next scheduled health-check tick.
func ShouldRunClusterCheck(responses []*SnapshotVerification, maxInvalidSnapshotRate float64) bool {
	total := 0
	invalid := 0
	for _, r := range responses {
		if r == nil {
			continue
		}
		total++
		if r.Status == SnapshotInvalid {
			invalid++
		}
	}
	if total == 0 {
		return false
	}
	return float64(invalid)/float64(total) >= maxInvalidSnapshotRate
}
