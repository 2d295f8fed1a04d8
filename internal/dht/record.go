package dht

import "errors"

// Sentinel errors surfaced to callers as structured outcomes. None of
// these abort the process; they are reported and the operation that
// raised them leaves state untouched.
var (
	// ErrOutOfRange means an ID fell outside [0, N), or a configuration
	// value (bit width m, B-tree order t) fell outside its allowed bounds.
	ErrOutOfRange = errors.New("value out of identifier-space range")
	// ErrDuplicateID means join was called with an ID already live in the ring.
	ErrDuplicateID = errors.New("node ID already present in ring")
	// ErrUnknownID means leave/lookup referenced an ID with no live node.
	ErrUnknownID = errors.New("no live node with that ID")
	// ErrEmptyRing means an operation requiring at least one node found none.
	ErrEmptyRing = errors.New("ring has no live nodes")
	// ErrDuplicateKey means insert was called with a key already present
	// in the target B-tree.
	ErrDuplicateKey = errors.New("key already exists")
	// ErrNotFound means a lookup or delete found no record for the key.
	ErrNotFound = errors.New("record not found")
	// ErrRoutingUnreachable means the router's loop guard fired before
	// reaching the true responsible node. This should not happen when
	// finger tables are fresh; treat it as a bug surface, not a normal
	// outcome.
	ErrRoutingUnreachable = errors.New("routing terminated without reaching the responsible node")
)

// HandoffCollision is a fatal assertion failure: a record received during
// join/leave hand-off collided with an existing key on the receiving
// node's B-tree. Each key should have exactly one owner at all times, so
// a collision here means the ring's invariants were already broken
// before hand-off began. It is not a sentinel error: callers are not
// expected to handle it, only to fix the bug it reports.
type HandoffCollision struct {
	Key      int
	FromNode int
	ToNode   int
}

func (e *HandoffCollision) Error() string {
	return "handoff collision: key already present on destination node"
}

// FileRecord is a (key, path) pair. Records are never mutated in place;
// they are inserted, moved between node indexes during hand-off, or
// removed. Key is the primary key within a node's B-tree; Path is an
// opaque payload the core never inspects.
type FileRecord struct {
	Key  int
	Path string
}
