package engine

import (
	"context"
	"testing"

	"github.com/ledgerd/node/config"
	"github.com/ledgerd/node/filestore"
)

func TestNewWiresCollaboratorsWithoutError(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SelfID = "node-1"
	cfg.BindAddr = "127.0.0.1:0"
	cfg.ServiceAddr = "127.0.0.1:0"

	e := New[GenericItem](cfg, filestore.NullFileStore{})

	if e.Lifecycle == nil || e.Directory == nil || e.NodeState == nil || e.Driver == nil {
		t.Fatalf("expected every core collaborator to be wired, got %+v", e)
	}
}

func TestAnnounceSnapshotWithNoPeersOnlyPrependsLocally(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SelfID = "node-1"

	e := New[GenericItem](cfg, filestore.NullFileStore{})

	e.AnnounceSnapshot(context.Background(), "h1", 1)

	got := e.RecentHolder.Get()
	if len(got) != 1 || got[0].Hash != "h1" {
		t.Fatalf("expected announce to prepend locally even with no peers, got %v", got)
	}
}

func TestGenericItemHash(t *testing.T) {
	item := NewGenericItem("abc")
	if item.Hash() != "abc" {
		t.Fatalf("expected Hash() to return the wrapped value")
	}
}
