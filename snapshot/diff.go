package snapshot

import (
	"fmt"
	"sort"

	"github.com/ledgerd/node/peers"
)

// ClusterSnapshots pairs a peer with its reported recent-snapshot history,
// the input to MajorityStateFromCluster and CompareSnapshotState (C7).
type ClusterSnapshots struct {
	PeerId    peers.PeerId
	Snapshots []RecentSnapshot
}

// recentSnapshotsKey serializes a []RecentSnapshot into a comparable map
// key so peers proposing the identical ordered history group together.
func recentSnapshotsKey(snapshots []RecentSnapshot) string {
	key := ""
	for _, s := range snapshots {
		key += fmt.Sprintf("%s@%d|", s.Hash, s.Height)
	}
	return key
}

// MajorityStateFromCluster groups peers by their entire reported history
// and returns the largest group's history plus its peer set. Ties are
// broken deterministically by favoring whichever distinct history was
// first encountered scanning peers in ascending PeerId order.
func MajorityStateFromCluster(cluster []ClusterSnapshots) ([]RecentSnapshot, map[peers.PeerId]struct{}) {
	sorted := make([]ClusterSnapshots, len(cluster))
	copy(sorted, cluster)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PeerId < sorted[j].PeerId })

	type group struct {
		snapshots  []RecentSnapshot
		members    map[peers.PeerId]struct{}
		firstIndex int
	}

	groups := make(map[string]*group)

	for i, entry := range sorted {
		key := recentSnapshotsKey(entry.Snapshots)
		g, ok := groups[key]
		if !ok {
			g = &group{snapshots: entry.Snapshots, members: map[peers.PeerId]struct{}{}, firstIndex: i}
			groups[key] = g
		}
		g.members[entry.PeerId] = struct{}{}
	}

	var best *group
	for _, g := range groups {
		if best == nil ||
			len(g.members) > len(best.members) ||
			(len(g.members) == len(best.members) && g.firstIndex < best.firstIndex) {
			best = g
		}
	}

	if best == nil {
		return nil, nil
	}
	return best.snapshots, best.members
}

// CompareSnapshotState computes the diff between own recent history and
// the cluster majority (C7). toDownload is reversed so the lowest-height
// entry executes first when the redownload driver fetches sequentially.
func CompareSnapshotState(own []RecentSnapshot, cluster []ClusterSnapshots) SnapshotDiff {
	majority, memberPeers := MajorityStateFromCluster(cluster)

	ownSet := make(map[RecentSnapshot]struct{}, len(own))
	for _, s := range own {
		ownSet[s] = struct{}{}
	}
	majoritySet := make(map[RecentSnapshot]struct{}, len(majority))
	for _, s := range majority {
		majoritySet[s] = struct{}{}
	}

	toDelete := make([]RecentSnapshot, 0)
	for _, s := range own {
		if _, ok := majoritySet[s]; !ok {
			toDelete = append(toDelete, s)
		}
	}

	toDownloadForward := make([]RecentSnapshot, 0)
	for _, s := range majority {
		if _, ok := ownSet[s]; !ok {
			toDownloadForward = append(toDownloadForward, s)
		}
	}
	toDownload := make([]RecentSnapshot, len(toDownloadForward))
	for i, s := range toDownloadForward {
		toDownload[len(toDownloadForward)-1-i] = s
	}

	return SnapshotDiff{
		ToDelete:   toDelete,
		ToDownload: toDownload,
		Peers:      memberPeers,
	}
}

// ShouldReDownload decides whether a diff's divergence warrants a
// redownload episode (C7). Any empty field among ToDelete, ToDownload,
// Peers forces false. Otherwise it's true if the node is too far behind
// (belowInterval) or has forked at a shared height (misaligned).
func ShouldReDownload(own []RecentSnapshot, diff SnapshotDiff, snapshotHeightRedownloadDelayInterval int64) bool {
	if len(diff.ToDelete) == 0 || len(diff.ToDownload) == 0 || len(diff.Peers) == 0 {
		return false
	}

	belowInterval := maxHeight(own)+snapshotHeightRedownloadDelayInterval < maxHeight(diff.ToDownload)

	misaligned := isMisaligned(own, diff)

	return belowInterval || misaligned
}

func maxHeight(snapshots []RecentSnapshot) int64 {
	var max int64
	for i, s := range snapshots {
		if i == 0 || s.Height > max {
			max = s.Height
		}
	}
	return max
}

// isMisaligned reports whether any own entry shares a height with a
// toDelete/toDownload entry but disagrees on hash — a fork at that height.
func isMisaligned(own []RecentSnapshot, diff SnapshotDiff) bool {
	hashesByHeight := make(map[int64][]string)
	for _, s := range diff.ToDelete {
		hashesByHeight[s.Height] = append(hashesByHeight[s.Height], s.Hash)
	}
	for _, s := range diff.ToDownload {
		hashesByHeight[s.Height] = append(hashesByHeight[s.Height], s.Hash)
	}

	for _, o := range own {
		for _, hash := range hashesByHeight[o.Height] {
			if hash != o.Hash {
				return true
			}
		}
	}
	return false
}
