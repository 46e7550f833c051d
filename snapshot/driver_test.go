package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ledgerd/node/common"
	"github.com/ledgerd/node/filestore"
	"github.com/ledgerd/node/metrics"
	"github.com/ledgerd/node/nodestate"
	"github.com/ledgerd/node/peers"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestDriver(t *testing.T, fs filestore.FileStore) (*Driver, *nodestate.Service) {
	t.Helper()

	ns := nodestate.NewService()
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	logger := common.NewTestLogger(t).WithField("test", true)

	return NewDriver(ns, fs, reg, logger), ns
}

func TestRedownloadEpisodeHappyPath(t *testing.T) {
	fs := filestore.NewMemFileStore()
	d, ns := newTestDriver(t, fs)

	diff := SnapshotDiff{
		ToDelete:   []RecentSnapshot{{Hash: "old", Height: 1}},
		ToDownload: []RecentSnapshot{{Hash: "new", Height: 2}},
		Peers:      map[peers.PeerId]struct{}{"p1": {}},
	}

	ran, err := d.RunEpisode(context.Background(), diff, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ran {
		t.Fatalf("expected episode to run")
	}
	if ns.GetNodeState() != nodestate.Ready {
		t.Fatalf("expected state Ready after success, got %v", ns.GetNodeState())
	}
	if len(fs.Fetched) != 1 || fs.Fetched[0] != "new" {
		t.Fatalf("expected 'new' fetched, got %v", fs.Fetched)
	}
	if len(fs.Removed) != 1 || fs.Removed[0] != "old" {
		t.Fatalf("expected 'old' removed, got %v", fs.Removed)
	}
}

func TestRedownloadEpisodeZeroHashNeverFetched(t *testing.T) {
	fs := filestore.NewMemFileStore()
	d, _ := newTestDriver(t, fs)

	diff := SnapshotDiff{
		ToDelete:   []RecentSnapshot{{Hash: "old", Height: 1}},
		ToDownload: []RecentSnapshot{{Hash: "", Height: 0}, {Hash: "new", Height: 2}},
		Peers:      map[peers.PeerId]struct{}{"p1": {}},
	}

	if _, err := d.RunEpisode(context.Background(), diff, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, h := range fs.Fetched {
		if h == "" {
			t.Fatalf("expected zero hash to never be fetched, got %v", fs.Fetched)
		}
	}
}

func TestRedownloadEpisodeFailureResetsStateAndPropagatesError(t *testing.T) {
	fs := filestore.NewMemFileStore()
	fs.FetchErr = errors.New("network down")
	d, ns := newTestDriver(t, fs)

	diff := SnapshotDiff{
		ToDelete:   []RecentSnapshot{{Hash: "old", Height: 1}},
		ToDownload: []RecentSnapshot{{Hash: "new", Height: 2}},
		Peers:      map[peers.PeerId]struct{}{"p1": {}},
	}

	_, err := d.RunEpisode(context.Background(), diff, nil)
	if err == nil {
		t.Fatalf("expected error to propagate")
	}
	if ns.GetNodeState() != nodestate.Ready {
		t.Fatalf("expected compensating reset to Ready, got %v", ns.GetNodeState())
	}
}

// gatedFileStore holds Fetch until release is closed, so a test can keep one
// redownload episode in flight while a second caller arrives.
type gatedFileStore struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedFileStore) Fetch(context.Context, []string, map[peers.PeerId]peers.PeerData) error {
	g.started <- struct{}{}
	<-g.release
	return nil
}

func (g *gatedFileStore) Remove([]string) error { return nil }

func TestSingleFlightAcrossConcurrentCallers(t *testing.T) {
	fs := &gatedFileStore{started: make(chan struct{}, 2), release: make(chan struct{})}
	d, _ := newTestDriver(t, fs)

	diff := SnapshotDiff{
		ToDelete:   []RecentSnapshot{{Hash: "old", Height: 1}},
		ToDownload: []RecentSnapshot{{Hash: "new", Height: 2}},
		Peers:      map[peers.PeerId]struct{}{"p1": {}},
	}

	var wg sync.WaitGroup
	ranCount := make([]bool, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		ran, _ := d.RunEpisode(context.Background(), diff, nil)
		ranCount[0] = ran
	}()

	// The first episode is now inside Fetch; the second caller overlaps it.
	<-fs.started
	ranCount[1], _ = d.RunEpisode(context.Background(), diff, nil)

	close(fs.release)
	wg.Wait()

	ranTotal := 0
	for _, r := range ranCount {
		if r {
			ranTotal++
		}
	}
	if ranTotal != 1 {
		t.Fatalf("expected exactly one concurrent caller to run the episode, got %d", ranTotal)
	}
	if d.pending.Load() {
		t.Fatalf("expected single-flight flag cleared after both calls return")
	}
}
