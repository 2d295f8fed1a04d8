package dht

import (
	"fmt"
	"log"
	"sort"
)

// Ring is the sorted cyclic list of active nodes over the identifier
// space, plus the on-disk-style B-tree each node owns. Ring exclusively
// owns every Node; when a node leaves, it and its B-tree are discarded
// together.
//
// Membership changes are scoped critical sections: Join and Leave either
// complete fully — splice, finger rebuild, hand-off — or return a
// validation error having mutated nothing.
type Ring struct {
	ks     Keyspace
	order  int
	nodes  []*Node // sorted ascending by ID
	index  map[int]*Node
	logger *log.Logger
}

// NewRing creates an empty ring over ks, whose nodes will each hold a
// B-tree of the given order. logger may be nil to discard diagnostics.
func NewRing(ks Keyspace, order int, logger *log.Logger) *Ring {
	return &Ring{
		ks:     ks,
		order:  order,
		index:  make(map[int]*Node),
		logger: logger,
	}
}

func (r *Ring) logf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

// Keyspace returns the ring's identifier space.
func (r *Ring) Keyspace() Keyspace { return r.ks }

// Size returns the number of live nodes.
func (r *Ring) Size() int { return len(r.nodes) }

// Nodes returns the live nodes in ascending-ID order. The slice is a copy;
// callers may not mutate ring membership through it.
func (r *Ring) Nodes() []*Node {
	out := make([]*Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Lookup returns the live node with the given ID.
func (r *Ring) Lookup(id int) (*Node, bool) {
	n, ok := r.index[id]
	return n, ok
}

func (r *Ring) indexOf(id int) (int, bool) {
	i := sort.Search(len(r.nodes), func(i int) bool { return r.nodes[i].id >= id })
	if i < len(r.nodes) && r.nodes[i].id == id {
		return i, true
	}
	return 0, false
}

// SuccessorOf returns the live node with the smallest ID >= x, wrapping to
// the smallest live ID if x exceeds all of them. It implements
// SuccessorLookup, the oracle finger tables rebuild against.
func (r *Ring) SuccessorOf(x int) (int, bool) {
	if len(r.nodes) == 0 {
		return 0, false
	}
	i := sort.Search(len(r.nodes), func(i int) bool { return r.nodes[i].id >= x })
	if i == len(r.nodes) {
		i = 0
	}
	return r.nodes[i].id, true
}

// ResponsibleFor returns the successor node of key under current
// membership, the ground truth the router and facade check their own
// answers against.
func (r *Ring) ResponsibleFor(key int) (*Node, error) {
	id, ok := r.SuccessorOf(key)
	if !ok {
		return nil, ErrEmptyRing
	}
	return r.index[id], nil
}

// Predecessor returns the live node whose next is id. Well defined
// whenever id names a live node; for a sole node, predecessor equals the
// node itself.
func (r *Ring) Predecessor(id int) (*Node, error) {
	idx, ok := r.indexOf(id)
	if !ok {
		return nil, fmt.Errorf("predecessor of %d: %w", id, ErrUnknownID)
	}
	predIdx := (idx - 1 + len(r.nodes)) % len(r.nodes)
	return r.nodes[predIdx], nil
}

// successorNode returns the live node whose ID is the ring's "next" link
// from id — i.e. the node immediately after id in ascending order, or
// itself if id is the sole node.
func (r *Ring) successorNode(id int) *Node {
	idx, _ := r.indexOf(id)
	nextIdx := (idx + 1) % len(r.nodes)
	return r.nodes[nextIdx]
}

// Next returns the live node immediately after id in ring order — the
// direct successor link the router falls back to when no finger offers a
// better hop.
func (r *Ring) Next(id int) (*Node, error) {
	if _, ok := r.indexOf(id); !ok {
		return nil, fmt.Errorf("next of %d: %w", id, ErrUnknownID)
	}
	return r.successorNode(id), nil
}

// Join creates a new node with the given ID, splices it into the ring,
// rebuilds every finger table, and hands off the keys the new node is now
// authoritative for. newID must be in range and unused; either violation
// is reported without mutating the ring.
func (r *Ring) Join(newID int) error {
	if !r.ks.Contains(newID) {
		return fmt.Errorf("join %d: %w", newID, ErrOutOfRange)
	}
	if _, exists := r.index[newID]; exists {
		return fmt.Errorf("join %d: %w", newID, ErrDuplicateID)
	}

	node, err := newNode(newID, r.ks.Bits(), r.order)
	if err != nil {
		return err
	}

	insertAt := sort.Search(len(r.nodes), func(i int) bool { return r.nodes[i].id > newID })
	r.nodes = append(r.nodes, nil)
	copy(r.nodes[insertAt+1:], r.nodes[insertAt:])
	r.nodes[insertAt] = node
	r.index[newID] = node

	r.rebuildAllFingers()

	if err := r.handoffOnJoin(node); err != nil {
		return err
	}

	r.logf("dht: node %d joined, ring size %d", newID, len(r.nodes))
	return nil
}

// handoffOnJoin moves every record in (p, new_id] mod N from the new
// node's successor s into the new node's own tree. When the ring had no
// other members, the new node's predecessor is itself and there is
// nothing to move.
func (r *Ring) handoffOnJoin(node *Node) error {
	pred, err := r.Predecessor(node.id)
	if err != nil {
		return err
	}
	if pred.id == node.id {
		return nil
	}
	succ := r.successorNode(node.id)

	for _, rec := range succ.tree.Enumerate() {
		if !r.ks.InOpenClosed(pred.id, node.id, rec.Key) {
			continue
		}
		if ok := succ.tree.Remove(rec.Key); !ok {
			continue
		}
		if !node.tree.Insert(rec) {
			panic(&HandoffCollision{Key: rec.Key, FromNode: succ.id, ToNode: node.id})
		}
	}
	return nil
}

// Leave transfers all of the departing node's records to its successor,
// unlinks it, rebuilds every remaining finger table, and destroys the
// node. id must name a live node.
func (r *Ring) Leave(id int) error {
	node, exists := r.index[id]
	if !exists {
		return fmt.Errorf("leave %d: %w", id, ErrUnknownID)
	}

	if len(r.nodes) > 1 {
		succ := r.successorNode(id)
		for _, rec := range node.tree.Enumerate() {
			if !succ.tree.Insert(rec) {
				panic(&HandoffCollision{Key: rec.Key, FromNode: id, ToNode: succ.id})
			}
		}
	}

	idx, _ := r.indexOf(id)
	r.nodes = append(r.nodes[:idx], r.nodes[idx+1:]...)
	delete(r.index, id)

	r.rebuildAllFingers()

	r.logf("dht: node %d left, ring size %d", id, len(r.nodes))
	return nil
}

func (r *Ring) rebuildAllFingers() {
	for _, n := range r.nodes {
		n.finger.Rebuild(r.ks, r)
	}
}
