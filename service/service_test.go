package service

import (
	"testing"

	"github.com/ledgerd/node/snapshot"
)

func TestClassifyVerificationAgreement(t *testing.T) {
	own := []snapshot.RecentSnapshot{{Hash: "h5", Height: 5}, {Hash: "h4", Height: 4}}

	got := classifyVerification(own, snapshot.SnapshotCreated{Hash: "h5", Height: 5})
	if got != snapshot.SnapshotCorrect {
		t.Fatalf("expected SnapshotCorrect, got %v", got)
	}
}

func TestClassifyVerificationDisagreement(t *testing.T) {
	own := []snapshot.RecentSnapshot{{Hash: "other", Height: 5}}

	got := classifyVerification(own, snapshot.SnapshotCreated{Hash: "h5", Height: 5})
	if got != snapshot.SnapshotInvalid {
		t.Fatalf("expected SnapshotInvalid, got %v", got)
	}
}

func TestClassifyVerificationHeightAbove(t *testing.T) {
	own := []snapshot.RecentSnapshot{{Hash: "h10", Height: 10}}

	got := classifyVerification(own, snapshot.SnapshotCreated{Hash: "h5", Height: 5})
	if got != snapshot.SnapshotHeightAbove {
		t.Fatalf("expected SnapshotHeightAbove, got %v", got)
	}
}

func TestClassifyVerificationNoRecordYetIsOptimistic(t *testing.T) {
	got := classifyVerification(nil, snapshot.SnapshotCreated{Hash: "h5", Height: 5})
	if got != snapshot.SnapshotCorrect {
		t.Fatalf("expected optimistic SnapshotCorrect with no own record, got %v", got)
	}
}
