package dht

import "fmt"

// Router walks finger hops from a starting node to the node responsible
// for a key. It never mutates the ring; it only reads finger tables and
// membership state.
type Router struct {
	ring *Ring
}

// NewRouter creates a router over ring.
func NewRouter(ring *Ring) *Router {
	return &Router{ring: ring}
}

// Route returns the ordered, non-empty list of node IDs visited from
// startID until the responsible node for key is reached (inclusive). The
// last ID is Ring.ResponsibleFor(key) unless the ring is empty, in which
// case Route returns a nil path and no error, or the loop guard fires, in
// which case the caller (the facade) is responsible for detecting the
// mismatch and surfacing ErrRoutingUnreachable — Route itself only
// implements the walk, not the error-classification policy layered on top
// of it.
func (rt *Router) Route(startID, key int) ([]int, error) {
	if rt.ring.Size() == 0 {
		return nil, nil
	}
	current, ok := rt.ring.Lookup(startID)
	if !ok {
		return nil, fmt.Errorf("route from %d: %w", startID, ErrUnknownID)
	}

	ks := rt.ring.Keyspace()
	var path []int
	visited := make(map[int]bool)

	for {
		path = append(path, current.ID())
		visited[current.ID()] = true

		if rt.ring.Size() == 1 {
			return path, nil
		}

		pred, err := rt.ring.Predecessor(current.ID())
		if err != nil {
			return path, err
		}
		if ks.InOpenClosed(pred.ID(), current.ID(), key) {
			return path, nil
		}

		nextID, ok := current.Fingers().BestHopTowards(ks, key)
		if !ok {
			nextNode, err := rt.ring.Next(current.ID())
			if err != nil {
				return path, err
			}
			nextID = nextNode.ID()
		}

		if visited[nextID] {
			// Loop guard: stale or degenerate fingers are steering us
			// back to a node we already visited. Stop here rather than
			// spin forever; the accumulated path is a tolerated
			// approximation the facade checks against the ground truth
			// before it acts on it.
			return path, nil
		}
		next, ok := rt.ring.Lookup(nextID)
		if !ok {
			// A finger pointed at an ID no longer live. Same tolerated
			// termination as the loop guard above.
			return path, nil
		}
		current = next
	}
}
