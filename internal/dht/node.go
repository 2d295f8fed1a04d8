package dht

// Node is a single ring member: a distinct ID in [0, N), a finger table of
// length m, and an owned B-tree of file records it is authoritative for.
// A Node is created on join and destroyed on leave; it owns its B-tree
// and finger-table storage exclusively, and never sends a message over a
// wire.
type Node struct {
	id     int
	finger *FingerTable
	tree   *BTree
}

// newNode creates a node with id, an unrebuilt finger table of length m,
// and an empty B-tree of the given order. Rebuilding the finger table and
// populating the B-tree via hand-off are the ring's responsibility, not
// the node's own.
func newNode(id, m, order int) (*Node, error) {
	tree, err := NewBTree(order)
	if err != nil {
		return nil, err
	}
	return &Node{
		id:     id,
		finger: NewFingerTable(id, m),
		tree:   tree,
	}, nil
}

// ID returns the node's identifier.
func (n *Node) ID() int { return n.id }

// Fingers returns the node's finger table.
func (n *Node) Fingers() *FingerTable { return n.finger }

// Tree returns the node's owned B-tree.
func (n *Node) Tree() *BTree { return n.tree }
