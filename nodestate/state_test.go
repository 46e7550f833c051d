package nodestate

import "testing"

func TestDefaultStateIsReadyAndVerifiable(t *testing.T) {
	s := NewService()

	if s.GetNodeState() != Ready {
		t.Fatalf("expected initial state Ready, got %v", s.GetNodeState())
	}
	if !CanRunClusterCheck(s.GetNodeState()) {
		t.Fatalf("expected Ready to allow cluster check")
	}
	if !CanVerifyRecentSnapshots(s.GetNodeState()) {
		t.Fatalf("expected Ready to allow verification")
	}
}

func TestDownloadInProgressBlocksChecks(t *testing.T) {
	s := NewService()
	s.SetNodeState(DownloadInProgress)

	if CanRunClusterCheck(s.GetNodeState()) {
		t.Fatalf("expected DownloadInProgress to block cluster check")
	}
	if CanVerifyRecentSnapshots(s.GetNodeState()) {
		t.Fatalf("expected DownloadInProgress to block verification")
	}
}
