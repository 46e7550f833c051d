package snapshot

import (
	"context"
	"sync"

	"github.com/ledgerd/node/nodestate"
	"github.com/ledgerd/node/peers"
	"github.com/sirupsen/logrus"
)

// HealthCheckLoop is the periodic cluster-consistency sweep (C10). Unlike
// BroadcastLoop.VerifyRecentSnapshots, it does not gate on the driver's
// single-flight flag itself — it drives C8 through RunEpisode, which
// acquires the flag on its own behalf, so a health check and an in-flight
// broadcast-triggered redownload never race.
type HealthCheckLoop struct {
	directory *peers.Directory
	client    PeerClient
	driver    *Driver
	recent    *RecentSnapshotsHolder
	nodeState *nodestate.Service
	logger    *logrus.Entry

	snapshotHeightRedownloadDelayInterval int64
}

// NewHealthCheckLoop wires the collaborators C10 needs.
func NewHealthCheckLoop(
	directory *peers.Directory,
	client PeerClient,
	driver *Driver,
	recent *RecentSnapshotsHolder,
	nodeState *nodestate.Service,
	logger *logrus.Entry,
	delayInterval int64,
) *HealthCheckLoop {
	return &HealthCheckLoop{
		directory: directory,
		client:    client,
		driver:    driver,
		recent:    recent,
		nodeState: nodeState,
		logger:    logger,

		snapshotHeightRedownloadDelayInterval: delayInterval,
	}
}

// RunClusterCheck runs one health-check tick: if the node lifecycle
// permits it, it checks consistency against the whole cluster and, if
// warranted, settles recentSnapshots on whatever the cluster drove it to.
func (h *HealthCheckLoop) RunClusterCheck(ctx context.Context) {
	if !nodestate.CanRunClusterCheck(h.nodeState.GetNodeState()) {
		return
	}

	if err := h.checkClusterConsistency(ctx); err != nil {
		h.logger.WithError(err).Warn("cluster consistency check failed")
	}
}

// checkClusterConsistency collects every ready peer's recent-snapshot
// history, feeds it into C7, and drives C8 when a redownload is warranted.
func (h *HealthCheckLoop) checkClusterConsistency(ctx context.Context) error {
	ownRecent := h.recent.Get()
	ready := h.directory.ReadyAll()

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
			recent, err := h.client.RecentSnapshots(ctx, ready[id])
			if err != nil {
				h.logger.WithError(err).WithField("peer", id).Warn("recent-snapshots request failed")
				return
			}
			mu.Lock()
			cluster = append(cluster, ClusterSnapshots{PeerId: id, Snapshots: recent})
			mu.Unlock()
		}(id)
	}
	wg.Wait()

	if len(cluster) == 0 {
		return nil
	}

	diff := CompareSnapshotState(ownRecent, cluster)
	if !ShouldReDownload(ownRecent, diff, h.snapshotHeightRedownloadDelayInterval) {
		return nil
	}

	majority, _ := MajorityStateFromCluster(cluster)
	restricted, missing := peers.Restrict(ready, diff.Peers)
	for _, err := range missing {
		h.logger.WithError(err).Warn("cluster-reported peer absent from directory")
	}

	ran, err := h.driver.RunEpisode(ctx, diff, restricted)
	if err != nil {
		return err
	}
	if ran {
		h.recent.Set(majority)
	}
	return nil
}
