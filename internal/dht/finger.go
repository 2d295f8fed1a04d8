package dht

// SuccessorLookup is the ring-membership oracle a finger table rebuilds
// against: the live node with the smallest ID >= x, wrapping if needed.
// Ring implements this; FingerTable only depends on the interface so it
// never needs to own or outlive the ring.
type SuccessorLookup interface {
	SuccessorOf(x int) (id int, ok bool)
}

// Finger is a single finger table entry: the target identifier and the ID
// of the node that was its successor as of the most recent rebuild.
// Fingers are non-owning: they hold an ID, never a pointer to a node, so a
// stale finger can never keep a departed node alive — a lookup through
// Ring.Lookup can simply fail if the ID is gone.
type Finger struct {
	Target    int
	Successor int
	Valid     bool // false until the first Rebuild, or if the ring was empty
}

// FingerTable holds the m ordered finger entries for one node.
type FingerTable struct {
	self    int
	entries []Finger
}

// NewFingerTable allocates an empty, unrebuilt finger table of length m
// for node self.
func NewFingerTable(self int, m int) *FingerTable {
	return &FingerTable{self: self, entries: make([]Finger, m)}
}

// Len returns m.
func (ft *FingerTable) Len() int { return len(ft.entries) }

// Entry returns the i-th finger entry.
func (ft *FingerTable) Entry(i int) Finger { return ft.entries[i] }

// Rebuild replaces all m entries: for each i, computes t_i = (self +
// 2^i) mod N and sets entry i's cached successor to ring's current
// successor of t_i. If the ring has no live nodes, every entry is marked
// invalid.
func (ft *FingerTable) Rebuild(ks Keyspace, ring SuccessorLookup) {
	for i := range ft.entries {
		target := ks.FingerTarget(ft.self, i)
		succ, ok := ring.SuccessorOf(target)
		ft.entries[i] = Finger{Target: target, Successor: succ, Valid: ok}
	}
}

// BestHopTowards returns the finger whose cached successor is the
// furthest valid hop toward key without overshooting it: the finger f
// such that f in (self, key] modulo N.
//
// Finger targets t_i = self + 2^i are strictly increasing in ring order as
// i increases, so scanning i from 0 up and keeping the last qualifying
// finger is equivalent to picking the single largest valid f — there is
// no need for a separate "closest preceding finger" pass from high i to
// low.
func (ft *FingerTable) BestHopTowards(ks Keyspace, key int) (int, bool) {
	best := 0
	found := false
	for _, f := range ft.entries {
		if !f.Valid || f.Successor == ft.self {
			continue
		}
		if ks.InOpenClosed(ft.self, key, f.Successor) {
			best = f.Successor
			found = true
		}
	}
	return best, found
}
