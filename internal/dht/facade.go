package dht

import (
	"fmt"
	"log"

	"github.com/google/uuid"
)

// Outcome status strings for Put.
const (
	StatusStored          = "stored"
	StatusDuplicateKey    = "duplicate_key"
	StatusNoSuchStartNode = "no_such_start_node"
	StatusEmptyRing       = "empty_ring"
)

// Outcome reports the result of a facade operation, plus diagnostics: the
// routing path the operation actually took and a TraceID, a fresh UUID per
// operation that a caller can attach to its own log lines. The facade's and
// ring's own diagnostic lines do not include it.
type Outcome struct {
	Status  string
	TraceID string
	Path    []int
}

// Config configures a Facade. It is consumed once at construction; the
// core stores no environment variables and reads no files.
type Config struct {
	// Bits is m, the identifier-space width in [MinBits, MaxBits].
	Bits int
	// Order is t, the B-tree order in [MinOrder, MaxOrder].
	Order int
	// Hash is the name-to-key collaborator. Nil selects DefaultHash.
	Hash HashFunc
	// Logger receives diagnostic lines on membership changes and
	// routing-loop-guard trips. Nil discards them.
	Logger *log.Logger
}

// Facade is the thin orchestration layer: it converts names to keys via
// the configured hash, routes every operation through the router even
// when it nominally targets a specific node, and delegates storage to the
// responsible node's B-tree.
type Facade struct {
	ring   *Ring
	router *Router
	hash   HashFunc
	logger *log.Logger
}

// New constructs a Facade with an empty ring over the configured
// identifier space and B-tree order.
func New(cfg Config) (*Facade, error) {
	ks, err := NewKeyspace(cfg.Bits)
	if err != nil {
		return nil, err
	}
	if cfg.Order < MinOrder || cfg.Order > MaxOrder {
		return nil, fmt.Errorf("btree order %d: %w", cfg.Order, ErrOutOfRange)
	}
	hash := cfg.Hash
	if hash == nil {
		hash = DefaultHash
	}
	ring := NewRing(ks, cfg.Order, cfg.Logger)
	return &Facade{
		ring:   ring,
		router: NewRouter(ring),
		hash:   hash,
		logger: cfg.Logger,
	}, nil
}

func (f *Facade) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Printf(format, args...)
	}
}

// Ring exposes the underlying ring for diagnostic iteration.
func (f *Facade) Ring() *Ring { return f.ring }

// routeChecked routes startID toward key and confirms the last hop is the
// ring's ground-truth responsible node. A mismatch means the router's
// loop guard fired before reaching it, which aborts the operation without
// mutating any B-tree.
func (f *Facade) routeChecked(startID, key int) (*Node, []int, error) {
	path, err := f.router.Route(startID, key)
	if err != nil {
		return nil, path, err
	}
	if len(path) == 0 {
		return nil, path, ErrEmptyRing
	}
	target, err := f.ring.ResponsibleFor(key)
	if err != nil {
		return nil, path, err
	}
	if path[len(path)-1] != target.ID() {
		f.logf("dht: routing from %d for key %d terminated at %d, expected %d", startID, key, path[len(path)-1], target.ID())
		return nil, path, ErrRoutingUnreachable
	}
	return target, path, nil
}

// Put hashes name to a key, routes from startID, and inserts (key, name)
// into the responsible node's B-tree.
func (f *Facade) Put(startID int, name string) (Outcome, error) {
	out := Outcome{TraceID: uuid.New().String()}

	if f.ring.Size() == 0 {
		out.Status = StatusEmptyRing
		return out, nil
	}
	if _, ok := f.ring.Lookup(startID); !ok {
		out.Status = StatusNoSuchStartNode
		return out, nil
	}

	key := f.hash(name, f.ring.Keyspace().Size())
	target, path, err := f.routeChecked(startID, key)
	out.Path = path
	if err != nil {
		return out, err
	}

	if !target.Tree().Insert(FileRecord{Key: key, Path: name}) {
		out.Status = StatusDuplicateKey
		return out, nil
	}
	out.Status = StatusStored
	return out, nil
}

// Get hashes name to a key, routes from startID, and looks up the record
// on the responsible node.
func (f *Facade) Get(startID int, name string) (FileRecord, bool, error) {
	if f.ring.Size() == 0 {
		return FileRecord{}, false, ErrEmptyRing
	}
	if _, ok := f.ring.Lookup(startID); !ok {
		return FileRecord{}, false, ErrUnknownID
	}

	key := f.hash(name, f.ring.Keyspace().Size())
	target, _, err := f.routeChecked(startID, key)
	if err != nil {
		return FileRecord{}, false, err
	}
	rec, found := target.Tree().Find(key)
	return rec, found, nil
}

// Del hashes name to a key, routes from startID, and removes the record
// from the responsible node.
func (f *Facade) Del(startID int, name string) (bool, error) {
	if f.ring.Size() == 0 {
		return false, ErrEmptyRing
	}
	if _, ok := f.ring.Lookup(startID); !ok {
		return false, ErrUnknownID
	}

	key := f.hash(name, f.ring.Keyspace().Size())
	target, _, err := f.routeChecked(startID, key)
	if err != nil {
		return false, err
	}
	return target.Tree().Remove(key), nil
}

// Join adds a new node with the given ID to the ring.
func (f *Facade) Join(id int) (Outcome, error) {
	out := Outcome{TraceID: uuid.New().String()}
	if err := f.ring.Join(id); err != nil {
		return out, err
	}
	out.Status = "joined"
	return out, nil
}

// Leave removes the node with the given ID from the ring.
func (f *Facade) Leave(id int) (Outcome, error) {
	out := Outcome{TraceID: uuid.New().String()}
	if err := f.ring.Leave(id); err != nil {
		return out, err
	}
	out.Status = "left"
	return out, nil
}

// DumpRing returns live node IDs in ring order.
func (f *Facade) DumpRing() []int {
	nodes := f.ring.Nodes()
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return ids
}

// DumpFingerTable returns id's finger entries in ascending-i order.
func (f *Facade) DumpFingerTable(id int) ([]Finger, error) {
	node, ok := f.ring.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("dump finger table for %d: %w", id, ErrUnknownID)
	}
	ft := node.Fingers()
	out := make([]Finger, ft.Len())
	for i := 0; i < ft.Len(); i++ {
		out[i] = ft.Entry(i)
	}
	return out, nil
}

// DumpBTree returns id's stored records.
func (f *Facade) DumpBTree(id int) ([]FileRecord, error) {
	node, ok := f.ring.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("dump btree for %d: %w", id, ErrUnknownID)
	}
	return node.Tree().Enumerate(), nil
}

// RingStatus aggregates ring health across every live node: how many
// nodes are up and how the stored keys are distributed among them.
type RingStatus struct {
	NodeCount int
	TotalKeys int
	KeysByID  map[int]int
}

// DumpStatus returns the aggregate ring status.
func (f *Facade) DumpStatus() RingStatus {
	nodes := f.ring.Nodes()
	status := RingStatus{NodeCount: len(nodes), KeysByID: make(map[int]int, len(nodes))}
	for _, n := range nodes {
		c := n.Tree().Count()
		status.KeysByID[n.ID()] = c
		status.TotalKeys += c
	}
	return status
}
