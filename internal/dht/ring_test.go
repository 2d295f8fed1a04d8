package dht

import (
	"errors"
	"testing"
)

func TestRing_JoinRejectsOutOfRangeAndDuplicate(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)

	if err := r.Join(16); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := r.Join(3); err != nil {
		t.Fatalf("unexpected error joining 3: %v", err)
	}
	if err := r.Join(3); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestRing_SoleNodeOwnsEverything(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	r.Join(9)

	for key := 0; key < ks.Size(); key++ {
		node, err := r.ResponsibleFor(key)
		if err != nil {
			t.Fatalf("ResponsibleFor(%d) error: %v", key, err)
		}
		if node.ID() != 9 {
			t.Errorf("ResponsibleFor(%d) = %d, want 9", key, node.ID())
		}
	}
}

func TestRing_SuccessorOfWraps(t *testing.T) {
	ks, _ := NewKeyspace(4) // N=16
	r := NewRing(ks, 3, nil)
	for _, id := range []int{1, 5, 9} {
		if err := r.Join(id); err != nil {
			t.Fatalf("join %d: %v", id, err)
		}
	}

	tests := []struct {
		x    int
		want int
	}{
		{0, 1},
		{1, 1},
		{2, 5},
		{9, 9},
		{10, 1}, // wraps past the largest ID
		{15, 1},
	}
	for _, tt := range tests {
		got, ok := r.SuccessorOf(tt.x)
		if !ok || got != tt.want {
			t.Errorf("SuccessorOf(%d) = (%d, %v), want (%d, true)", tt.x, got, ok, tt.want)
		}
	}
}

func TestRing_PredecessorAndNextWrap(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	for _, id := range []int{1, 5, 9} {
		r.Join(id)
	}

	pred, err := r.Predecessor(1)
	if err != nil || pred.ID() != 9 {
		t.Fatalf("Predecessor(1) = (%v, %v), want (9, nil)", pred, err)
	}
	next, err := r.Next(9)
	if err != nil || next.ID() != 1 {
		t.Fatalf("Next(9) = (%v, %v), want (1, nil)", next, err)
	}
}

func TestRing_JoinRebuildsFingerTables(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	r.Join(1)
	r.Join(9)

	node, _ := r.Lookup(1)
	ft := node.Fingers()
	if ft.Len() != 4 {
		t.Fatalf("expected finger table length 4, got %d", ft.Len())
	}
	for i := 0; i < ft.Len(); i++ {
		if !ft.Entry(i).Valid {
			t.Errorf("entry %d should be valid after join with a live ring", i)
		}
	}
}

func TestRing_JoinHandsOffKeys(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	r.Join(9)

	node9, _ := r.Lookup(9)
	// Populate node 9 with keys across the whole ring, since it currently
	// owns everything as sole member.
	for k := 0; k < ks.Size(); k += 2 {
		node9.Tree().Insert(FileRecord{Key: k, Path: "p"})
	}

	if err := r.Join(3); err != nil {
		t.Fatalf("join 3: %v", err)
	}

	node3, _ := r.Lookup(3)
	// Node 3 should now own keys in (9, 3] mod 16, i.e. 10..15 and 0..3.
	for _, k := range []int{10, 12, 14, 0, 2} {
		if _, found := node3.Tree().Find(k); !found {
			t.Errorf("expected node 3 to have received key %d", k)
		}
		if _, found := node9.Tree().Find(k); found {
			t.Errorf("expected node 9 to have relinquished key %d", k)
		}
	}
	// Node 9 should still own keys in (3, 9], i.e. 4, 6, 8.
	for _, k := range []int{4, 6, 8} {
		if _, found := node9.Tree().Find(k); !found {
			t.Errorf("expected node 9 to retain key %d", k)
		}
	}
}

func TestRing_LeaveTransfersKeysAndUnlinks(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	r.Join(1)
	r.Join(9)

	node9, _ := r.Lookup(9)
	node9.Tree().Insert(FileRecord{Key: 5, Path: "p"})
	node9.Tree().Insert(FileRecord{Key: 9, Path: "q"})

	if err := r.Leave(9); err != nil {
		t.Fatalf("leave 9: %v", err)
	}
	if _, ok := r.Lookup(9); ok {
		t.Fatal("expected node 9 to be gone after leaving")
	}
	node1, _ := r.Lookup(1)
	for _, k := range []int{5, 9} {
		if _, found := node1.Tree().Find(k); !found {
			t.Errorf("expected surviving successor to have received key %d", k)
		}
	}
}

func TestRing_LeaveUnknownID(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	r.Join(1)
	if err := r.Leave(2); !errors.Is(err, ErrUnknownID) {
		t.Fatalf("expected ErrUnknownID, got %v", err)
	}
}

func TestRing_LeaveSoleNodeDropsRecords(t *testing.T) {
	ks, _ := NewKeyspace(4)
	r := NewRing(ks, 3, nil)
	r.Join(1)
	node1, _ := r.Lookup(1)
	node1.Tree().Insert(FileRecord{Key: 3, Path: "p"})

	if err := r.Leave(1); err != nil {
		t.Fatalf("leave 1: %v", err)
	}
	if r.Size() != 0 {
		t.Fatalf("expected empty ring, got size %d", r.Size())
	}
}
