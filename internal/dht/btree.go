package dht

import (
	"fmt"
	"sort"
)

// btreeNode is a single node of a BTree. recs is always sorted ascending
// by Key. For internal nodes, len(kids) == len(recs)+1; kids[i] holds keys
// less than recs[i], and the last kid holds keys greater than the last
// record.
type btreeNode struct {
	leaf bool
	recs []FileRecord
	kids []*btreeNode
}

// BTree is the per-node ordered index: a classical B-tree of configurable
// order t holding the file records a ring node is authoritative for.
// Records live at any level, not only leaves.
type BTree struct {
	order int
	root  *btreeNode
	count int
}

// NewBTree creates an empty B-tree of the given order t in [MinOrder,
// MaxOrder].
func NewBTree(order int) (*BTree, error) {
	if order < MinOrder || order > MaxOrder {
		return nil, fmt.Errorf("btree order %d: %w", order, ErrOutOfRange)
	}
	return &BTree{
		order: order,
		root:  &btreeNode{leaf: true},
	}, nil
}

// Order returns t.
func (t *BTree) Order() int { return t.order }

// Count returns the number of records currently stored.
func (t *BTree) Count() int { return t.count }

func (t *BTree) maxKeys() int { return t.order - 1 }

// minKeys is the canonical ceil(t/2)-1 threshold, applied to every node
// except the root.
func (t *BTree) minKeys() int { return (t.order+1)/2 - 1 }

// search returns the index of key within n.recs (via binary search) and
// whether it was found. If not found, idx is both the record insertion
// point and, for internal nodes, the child index to descend into.
func search(n *btreeNode, key int) (idx int, found bool) {
	idx = sort.Search(len(n.recs), func(i int) bool { return n.recs[i].Key >= key })
	found = idx < len(n.recs) && n.recs[idx].Key == key
	return idx, found
}

// Find returns the record for key, if present.
func (t *BTree) Find(key int) (FileRecord, bool) {
	n := t.root
	for n != nil {
		idx, found := search(n, key)
		if found {
			return n.recs[idx], true
		}
		if n.leaf {
			return FileRecord{}, false
		}
		n = n.kids[idx]
	}
	return FileRecord{}, false
}

// Insert adds rec to the tree. If a record with the same key already
// exists, the tree is left unmodified and Insert returns false.
func (t *BTree) Insert(rec FileRecord) bool {
	if _, found := t.Find(rec.Key); found {
		return false
	}
	median, right, split := t.insertInto(t.root, rec)
	if split {
		t.root = &btreeNode{
			leaf: false,
			recs: []FileRecord{median},
			kids: []*btreeNode{t.root, right},
		}
	}
	t.count++
	return true
}

// insertInto inserts rec into the subtree rooted at n, splitting n if it
// overflows past maxKeys. Returns the median record and new right sibling
// when a split occurred.
func (t *BTree) insertInto(n *btreeNode, rec FileRecord) (median FileRecord, right *btreeNode, split bool) {
	if n.leaf {
		idx, _ := search(n, rec.Key)
		n.recs = append(n.recs, FileRecord{})
		copy(n.recs[idx+1:], n.recs[idx:])
		n.recs[idx] = rec
	} else {
		idx, _ := search(n, rec.Key)
		childMedian, childRight, childSplit := t.insertInto(n.kids[idx], rec)
		if !childSplit {
			return FileRecord{}, nil, false
		}
		n.recs = append(n.recs, FileRecord{})
		copy(n.recs[idx+1:], n.recs[idx:])
		n.recs[idx] = childMedian

		n.kids = append(n.kids, nil)
		copy(n.kids[idx+2:], n.kids[idx+1:])
		n.kids[idx+1] = childRight
	}

	if len(n.recs) <= t.maxKeys() {
		return FileRecord{}, nil, false
	}
	return t.splitNode(n)
}

// splitNode splits an overflowed node (maxKeys+1 records) into itself
// (shrunk to the left half) and a new right sibling, promoting the median
// record. The two halves end up holding floor((t-1)/2) and ceil((t-1)/2)
// records.
func (t *BTree) splitNode(n *btreeNode) (median FileRecord, right *btreeNode, split bool) {
	total := len(n.recs) // == t.order
	leftCount := (total - 1) / 2
	median = n.recs[leftCount]

	rightRecs := append([]FileRecord(nil), n.recs[leftCount+1:]...)
	n.recs = n.recs[:leftCount:leftCount]

	right = &btreeNode{leaf: n.leaf, recs: rightRecs}
	if !n.leaf {
		rightKids := append([]*btreeNode(nil), n.kids[leftCount+1:]...)
		n.kids = n.kids[:leftCount+1 : leftCount+1]
		right.kids = rightKids
	}
	return median, right, true
}

// Remove deletes the record for key, restoring B-tree invariants via
// rotation or merge. Returns false and leaves the tree untouched if key
// is absent.
func (t *BTree) Remove(key int) bool {
	ok := t.removeFrom(t.root, key)
	if !ok {
		return false
	}
	if len(t.root.recs) == 0 && !t.root.leaf {
		t.root = t.root.kids[0]
	}
	t.count--
	return true
}

// removeFrom deletes key from the subtree rooted at n and restores every
// child's minKeys invariant it disturbs along the way. Root underflow to
// zero records is handled by the caller, Remove.
func (t *BTree) removeFrom(n *btreeNode, key int) bool {
	idx, found := search(n, key)
	if found {
		if n.leaf {
			n.recs = append(n.recs[:idx], n.recs[idx+1:]...)
			return true
		}
		succNode := leftmostLeaf(n.kids[idx+1])
		successor := succNode.recs[0]
		n.recs[idx] = successor
		t.removeFrom(n.kids[idx+1], successor.Key)
		t.restoreChild(n, idx+1)
		return true
	}
	if n.leaf {
		return false
	}
	ok := t.removeFrom(n.kids[idx], key)
	if ok {
		t.restoreChild(n, idx)
	}
	return ok
}

// leftmostLeaf walks to the left-most leaf of the subtree rooted at n,
// which holds the in-order successor of the parent record that separates
// n from its left sibling.
func leftmostLeaf(n *btreeNode) *btreeNode {
	for !n.leaf {
		n = n.kids[0]
	}
	return n
}

// restoreChild ensures parent.kids[idx] holds at least minKeys records,
// borrowing from a sibling with spare capacity (rotation) or merging with
// one otherwise, pulling the separating record down from parent.
func (t *BTree) restoreChild(parent *btreeNode, idx int) {
	child := parent.kids[idx]
	if len(child.recs) >= t.minKeys() {
		return
	}

	if idx > 0 && len(parent.kids[idx-1].recs) > t.minKeys() {
		left := parent.kids[idx-1]
		child.recs = append([]FileRecord{parent.recs[idx-1]}, child.recs...)
		parent.recs[idx-1] = left.recs[len(left.recs)-1]
		left.recs = left.recs[:len(left.recs)-1]
		if !child.leaf {
			borrowed := left.kids[len(left.kids)-1]
			left.kids = left.kids[:len(left.kids)-1]
			child.kids = append([]*btreeNode{borrowed}, child.kids...)
		}
		return
	}

	if idx < len(parent.kids)-1 && len(parent.kids[idx+1].recs) > t.minKeys() {
		rightSib := parent.kids[idx+1]
		child.recs = append(child.recs, parent.recs[idx])
		parent.recs[idx] = rightSib.recs[0]
		rightSib.recs = rightSib.recs[1:]
		if !child.leaf {
			borrowed := rightSib.kids[0]
			rightSib.kids = rightSib.kids[1:]
			child.kids = append(child.kids, borrowed)
		}
		return
	}

	if idx > 0 {
		left := parent.kids[idx-1]
		left.recs = append(left.recs, parent.recs[idx-1])
		left.recs = append(left.recs, child.recs...)
		if !left.leaf {
			left.kids = append(left.kids, child.kids...)
		}
		parent.recs = append(parent.recs[:idx-1], parent.recs[idx:]...)
		parent.kids = append(parent.kids[:idx], parent.kids[idx+1:]...)
		return
	}

	rightSib := parent.kids[idx+1]
	child.recs = append(child.recs, parent.recs[idx])
	child.recs = append(child.recs, rightSib.recs...)
	if !child.leaf {
		child.kids = append(child.kids, rightSib.kids...)
	}
	parent.recs = append(parent.recs[:idx], parent.recs[idx+1:]...)
	parent.kids = append(parent.kids[:idx+1], parent.kids[idx+2:]...)
}

// Enumerate returns every stored record, visiting each exactly once in
// breadth-first node order.
func (t *BTree) Enumerate() []FileRecord {
	result := make([]FileRecord, 0, t.count)
	queue := []*btreeNode{t.root}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		result = append(result, n.recs...)
		if !n.leaf {
			queue = append(queue, n.kids...)
		}
	}
	return result
}

// Validate checks the standard B-tree shape invariants for order t: sorted
// records per node, correct child counts, minKeys respected below the
// root, and uniform leaf depth. Intended for tests.
func (t *BTree) Validate() error {
	depth := -1
	var walk func(n *btreeNode, isRoot bool, level int) (int, error)
	walk = func(n *btreeNode, isRoot bool, level int) (int, error) {
		if len(n.recs) > t.maxKeys() {
			return 0, fmt.Errorf("node has %d records, max is %d", len(n.recs), t.maxKeys())
		}
		if !isRoot && len(n.recs) < t.minKeys() {
			return 0, fmt.Errorf("non-root node has %d records, min is %d", len(n.recs), t.minKeys())
		}
		for i := 1; i < len(n.recs); i++ {
			if n.recs[i-1].Key >= n.recs[i].Key {
				return 0, fmt.Errorf("records not strictly ascending at index %d", i)
			}
		}
		if n.leaf {
			if depth == -1 {
				depth = level
			} else if depth != level {
				return 0, fmt.Errorf("leaf depth mismatch: expected %d, got %d", depth, level)
			}
			return level, nil
		}
		if len(n.kids) != len(n.recs)+1 {
			return 0, fmt.Errorf("internal node has %d records but %d children", len(n.recs), len(n.kids))
		}
		for _, kid := range n.kids {
			if _, err := walk(kid, false, level+1); err != nil {
				return 0, err
			}
		}
		return level, nil
	}
	_, err := walk(t.root, true, 0)
	return err
}
