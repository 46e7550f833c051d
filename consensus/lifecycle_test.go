package consensus

import "testing"

type testItem struct {
	hash string
	val  int
}

func (t testItem) Hash() string { return t.hash }

func TestPutPendingThenPullForConsensus(t *testing.T) {
	s := New[testItem]()

	a := testItem{hash: "h1", val: 1}
	s.Put(a)

	if _, ok := s.LookupStatus("h1", Pending); !ok {
		t.Fatalf("expected h1 pending")
	}

	pulled := s.PullForConsensus(1)
	if len(pulled) != 1 || pulled[0].hash != "h1" {
		t.Fatalf("unexpected pulled set: %v", pulled)
	}

	if _, ok := s.LookupStatus("h1", Pending); ok {
		t.Fatalf("expected h1 absent from pending after pull")
	}
	if _, ok := s.LookupStatus("h1", InConsensus); !ok {
		t.Fatalf("expected h1 present in InConsensus after pull")
	}
}

func TestAcceptIsIdempotentAndFinal(t *testing.T) {
	s := New[testItem]()

	a := testItem{hash: "h1", val: 1}
	s.Put(a)
	s.PullForConsensus(1)

	s.Accept(a)
	s.Accept(a)

	v, ok := s.Lookup("h1")
	if !ok || v.hash != "h1" {
		t.Fatalf("expected accepted item to be found, got %v, %v", v, ok)
	}
	if _, ok := s.LookupStatus("h1", InConsensus); ok {
		t.Fatalf("expected h1 absent from InConsensus post-accept")
	}
	if _, ok := s.LookupStatus("h1", Unknown); ok {
		t.Fatalf("expected h1 absent from Unknown post-accept")
	}
	if s.CountStatus(Accepted) != 1 {
		t.Fatalf("expected exactly one accepted entry, got %d", s.CountStatus(Accepted))
	}
}

func TestDisjointnessAcrossTransitions(t *testing.T) {
	s := New[testItem]()

	a := testItem{hash: "h1", val: 1}
	s.Put(a)
	s.PullForConsensus(1)
	s.ClearInConsensus([]string{"h1"})

	if s.Contains("h1") == false {
		t.Fatalf("expected h1 to still exist, now in Unknown")
	}
	if _, ok := s.LookupStatus("h1", InConsensus); ok {
		t.Fatalf("expected h1 absent from InConsensus after clear")
	}
	if _, ok := s.LookupStatus("h1", Unknown); !ok {
		t.Fatalf("expected h1 present in Unknown after clear")
	}

	count := 0
	for _, st := range []Status{Pending, InConsensus, Accepted} {
		if _, ok := s.LookupStatus("h1", st); ok {
			count++
		}
	}
	if count > 1 {
		t.Fatalf("h1 present in more than one of Pending/InConsensus/Accepted")
	}
}

func TestReturnToPending(t *testing.T) {
	s := New[testItem]()

	a := testItem{hash: "h1", val: 1}
	s.Put(a)
	s.PullForConsensus(1)
	s.ReturnToPending([]string{"h1"})

	if _, ok := s.LookupStatus("h1", Pending); !ok {
		t.Fatalf("expected h1 back in Pending")
	}
	if _, ok := s.LookupStatus("h1", InConsensus); ok {
		t.Fatalf("expected h1 absent from InConsensus")
	}
}

func TestPutStatusRejectsInConsensusAndUnknownStatus(t *testing.T) {
	s := New[testItem]()
	a := testItem{hash: "h1", val: 1}

	if err := s.PutStatus(a, InConsensus); err == nil {
		t.Fatalf("expected error putting directly into InConsensus")
	}
	if err := s.PutStatus(a, Status(99)); err == nil {
		t.Fatalf("expected UnknownStatus error for invalid status")
	}
}

func TestGetMetricsMapCompatBugZeroesNonPending(t *testing.T) {
	s := New[testItem](WithMetricsIndexBugCompat[testItem](true))

	a := testItem{hash: "h1", val: 1}
	s.Put(a)
	s.PullForConsensus(1)
	s.Accept(a)

	m := s.GetMetricsMap()
	if m["pending"] != 0 {
		t.Fatalf("expected 0 pending, got %d", m["pending"])
	}
	if m["inConsensus"] != 0 || m["accepted"] != 0 || m["unknown"] != 0 {
		t.Fatalf("expected the compat bug to zero non-pending metrics, got %v", m)
	}
}

func TestGetMetricsMapCorrected(t *testing.T) {
	s := New[testItem](WithMetricsIndexBugCompat[testItem](false))

	a := testItem{hash: "h1", val: 1}
	s.Put(a)
	s.PullForConsensus(1)
	s.Accept(a)

	m := s.GetMetricsMap()
	if m["accepted"] != 1 {
		t.Fatalf("expected corrected metrics to report 1 accepted, got %v", m)
	}
}

func TestMerklePoolLookup(t *testing.T) {
	s := New[testItem]()

	s.AddMerkleRoot("root1", "h1")
	s.AddMerkleRoot("root1", "h2")

	hashes := s.FindHashesByMerkleRoot("root1")
	if len(hashes) != 2 || hashes[0] != "h1" || hashes[1] != "h2" {
		t.Fatalf("unexpected hashes: %v", hashes)
	}
}
