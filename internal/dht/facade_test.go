package dht

import (
	"errors"
	"testing"
)

func stubHash(fixed int) HashFunc {
	return func(name string, n int) int { return fixed % n }
}

func TestNew_RejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Bits: 0, Order: 3}); err == nil {
		t.Fatal("expected error for bits below MinBits")
	}
	if _, err := New(Config{Bits: 4, Order: 1}); err == nil {
		t.Fatal("expected error for order below MinOrder")
	}
}

func TestFacade_PutGetDelRoundTrip(t *testing.T) {
	f, err := New(Config{Bits: 4, Order: 3, Hash: stubHash(5)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := f.Join(9); err != nil {
		t.Fatalf("join 9: %v", err)
	}

	out, err := f.Put(9, "report.pdf")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if out.Status != StatusStored {
		t.Fatalf("expected status stored, got %q", out.Status)
	}
	if out.TraceID == "" {
		t.Fatal("expected non-empty TraceID")
	}

	rec, found, err := f.Get(9, "report.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !found || rec.Path != "report.pdf" {
		t.Fatalf("Get returned (%+v, %v), want the stored record", rec, found)
	}

	ok, err := f.Del(9, "report.pdf")
	if err != nil || !ok {
		t.Fatalf("Del = (%v, %v), want (true, nil)", ok, err)
	}

	_, found, err = f.Get(9, "report.pdf")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if found {
		t.Fatal("expected record to be gone after delete")
	}
}

func TestFacade_PutDuplicateKey(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3, Hash: stubHash(5)})
	f.Join(9)

	f.Put(9, "a")
	out, err := f.Put(9, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusDuplicateKey {
		t.Fatalf("expected duplicate_key status, got %q", out.Status)
	}
}

func TestFacade_PutOnEmptyRing(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3})
	out, err := f.Put(9, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusEmptyRing {
		t.Fatalf("expected empty_ring status, got %q", out.Status)
	}
}

func TestFacade_PutFromUnknownStartNode(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3})
	f.Join(1)
	out, err := f.Put(9, "a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusNoSuchStartNode {
		t.Fatalf("expected no_such_start_node status, got %q", out.Status)
	}
}

func TestFacade_GetDelOnEmptyRingReturnErrors(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3})
	if _, _, err := f.Get(0, "a"); !errors.Is(err, ErrEmptyRing) {
		t.Fatalf("expected ErrEmptyRing from Get, got %v", err)
	}
	if _, err := f.Del(0, "a"); !errors.Is(err, ErrEmptyRing) {
		t.Fatalf("expected ErrEmptyRing from Del, got %v", err)
	}
}

func TestFacade_GetDelFromUnknownStartNode(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3})
	f.Join(1)
	if _, _, err := f.Get(9, "a"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID from Get, got %v", err)
	}
	if _, err := f.Del(9, "a"); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID from Del, got %v", err)
	}
}

func TestFacade_JoinLeave(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3})
	out, err := f.Join(5)
	if err != nil || out.Status != "joined" {
		t.Fatalf("Join = (%+v, %v), want status joined", out, err)
	}
	out, err = f.Leave(5)
	if err != nil || out.Status != "left" {
		t.Fatalf("Leave = (%+v, %v), want status left", out, err)
	}
}

func TestFacade_DumpsMatchRingState(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3, Hash: stubHash(2)})
	f.Join(1)
	f.Join(9)
	f.Put(1, "x")

	ids := f.DumpRing()
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 9 {
		t.Fatalf("DumpRing = %v, want [1 9]", ids)
	}

	fingers, err := f.DumpFingerTable(1)
	if err != nil {
		t.Fatalf("DumpFingerTable: %v", err)
	}
	if len(fingers) != 4 {
		t.Fatalf("expected 4 finger entries, got %d", len(fingers))
	}

	if _, err := f.DumpFingerTable(99); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID for unknown node, got %v", err)
	}

	status := f.DumpStatus()
	if status.NodeCount != 2 {
		t.Fatalf("expected NodeCount 2, got %d", status.NodeCount)
	}
	if status.TotalKeys != 1 {
		t.Fatalf("expected TotalKeys 1, got %d", status.TotalKeys)
	}
}

func TestFacade_DumpBTree(t *testing.T) {
	f, _ := New(Config{Bits: 4, Order: 3, Hash: stubHash(2)})
	f.Join(9)
	f.Put(9, "x")

	recs, err := f.DumpBTree(9)
	if err != nil {
		t.Fatalf("DumpBTree: %v", err)
	}
	if len(recs) != 1 || recs[0].Path != "x" {
		t.Fatalf("DumpBTree = %v, want one record with path x", recs)
	}

	if _, err := f.DumpBTree(99); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}
