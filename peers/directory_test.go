package peers

import (
	"testing"

	"github.com/ledgerd/node/common"
)

func TestReadyPeersFiltersByTypeAndState(t *testing.T) {
	d := NewDirectory()
	d.Upsert("p1", PeerData{Endpoint: "h1:8000", NodeType: Full, State: Ready})
	d.Upsert("p2", PeerData{Endpoint: "h2:8000", NodeType: Full, State: Unreachable})
	d.Upsert("p3", PeerData{Endpoint: "h3:8000", NodeType: Light, State: Ready})

	ready := d.ReadyPeers(Full)
	if len(ready) != 1 {
		t.Fatalf("expected 1 ready full peer, got %d", len(ready))
	}
	if _, ok := ready["p1"]; !ok {
		t.Fatalf("expected p1 in ready set")
	}
}

func TestRestrictDropsUnlistedIds(t *testing.T) {
	all := map[PeerId]PeerData{
		"p1": {Endpoint: "h1"},
		"p2": {Endpoint: "h2"},
	}
	restricted, missing := Restrict(all, map[PeerId]struct{}{"p1": {}})

	if len(restricted) != 1 {
		t.Fatalf("expected 1 peer after restrict, got %d", len(restricted))
	}
	if _, ok := restricted["p1"]; !ok {
		t.Fatalf("expected p1 retained")
	}
	if len(missing) != 0 {
		t.Fatalf("expected no missing ids, got %v", missing)
	}
}

func TestRestrictReportsUnknownPeerForIdsAbsentFromDirectory(t *testing.T) {
	all := map[PeerId]PeerData{
		"p1": {Endpoint: "h1"},
	}
	restricted, missing := Restrict(all, map[PeerId]struct{}{"p1": {}, "p2": {}})

	if len(restricted) != 1 {
		t.Fatalf("expected 1 known peer after restrict, got %d", len(restricted))
	}
	if len(missing) != 1 {
		t.Fatalf("expected exactly 1 missing id, got %v", missing)
	}
	if !common.IsStore(missing[0], common.UnknownPeer) {
		t.Fatalf("expected missing id to be reported as UnknownPeer, got %v", missing[0])
	}
}
