package store

import "testing"

func TestStoreCapacityEvictsOldest(t *testing.T) {
	s := New[string](3)

	s.Put("a", "A")
	s.Put("b", "B")
	s.Put("c", "C")
	s.Put("d", "D")

	if s.Contains("a") {
		t.Fatalf("expected 'a' to have been evicted")
	}
	if s.Size() != 3 {
		t.Fatalf("expected size 3, got %d", s.Size())
	}

	v, ok := s.Lookup("d")
	if !ok || v != "D" {
		t.Fatalf("expected to find 'd' -> D, got %v, %v", v, ok)
	}
}

func TestStoreUpdateWithEmpty(t *testing.T) {
	s := New[int](0)

	empty := 0
	v, err := s.Update("k", func(cur int) int { return cur + 1 }, &empty)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}

	v, err = s.Update("k", func(cur int) int { return cur + 1 }, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected 2, got %d", v)
	}
}

func TestStoreUpdateAbsentWithoutEmptyFails(t *testing.T) {
	s := New[int](0)

	_, err := s.Update("missing", func(cur int) int { return cur }, nil)
	if err == nil {
		t.Fatalf("expected error for update on absent key without empty")
	}
}

func TestStoreGetLastN(t *testing.T) {
	s := New[string](0)

	s.Put("a", "A")
	s.Put("b", "B")
	s.Put("c", "C")

	last := s.GetLastN(2)
	if len(last) != 2 || last[0] != "C" || last[1] != "B" {
		t.Fatalf("unexpected GetLastN result: %v", last)
	}
}

func TestMemPoolPullReturnsFalseOnlyWhenEmpty(t *testing.T) {
	p := NewMemPool[string]()

	_, ok := p.Pull(5)
	if ok {
		t.Fatalf("expected ok=false on empty pool")
	}

	p.Put("a", "A")
	p.Put("b", "B")
	p.Put("c", "C")

	got, ok := p.Pull(2)
	if !ok {
		t.Fatalf("expected ok=true with entries present")
	}
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("unexpected pull result: %v", got)
	}

	if p.Size() != 1 {
		t.Fatalf("expected 1 remaining, got %d", p.Size())
	}

	got, ok = p.Pull(10)
	if !ok || len(got) != 1 || got[0] != "C" {
		t.Fatalf("expected final pull to drain remaining entry, got %v, %v", got, ok)
	}
}
