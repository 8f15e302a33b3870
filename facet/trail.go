// Package facet is the runtime support imported by generated facet code.
// It carries the nesting trail threaded through nested constructors, small
// pointer helpers, and the projection descriptor consumed by query builders.
package facet

// Trail tracks one constructor invocation through nested facet calls. It
// bounds nesting depth and, when identity tracking is on, remembers source
// pointers already mapped so reference cycles come out as nil instead of
// recursing.
//
// A Trail is single-invocation state and is not safe for concurrent use.
type Trail struct {
	depth    int
	maxDepth int // zero means unbounded
	visited  map[any]struct{}
}

// NewTrail creates the root trail for one constructor invocation.
func NewTrail(maxDepth int, trackIdentity bool) *Trail {
	t := &Trail{maxDepth: maxDepth}
	if trackIdentity {
		t.visited = make(map[any]struct{})
	}

	return t
}

// Depth returns the current nesting depth, zero at the root.
func (t *Trail) Depth() int {
	return t.depth
}

// CanDescend reports whether one more nesting level stays within the depth
// bound.
func (t *Trail) CanDescend() bool {
	return t.maxDepth == 0 || t.depth+1 <= t.maxDepth
}

// Descend returns the trail for the next nesting level. The child shares
// the identity set, so a source object mapped anywhere in the invocation
// stays mapped.
func (t *Trail) Descend() *Trail {
	return &Trail{
		depth:    t.depth + 1,
		maxDepth: t.maxDepth,
		visited:  t.visited,
	}
}

// Enter registers a source pointer on the trail. It returns false when the
// pointer was already mapped during this invocation, which is the signal to
// leave the nested field nil. Without identity tracking every pointer is
// fresh.
func Enter[T any](t *Trail, p *T) bool {
	if t.visited == nil || p == nil {
		return true
	}

	if _, seen := t.visited[p]; seen {
		return false
	}

	t.visited[p] = struct{}{}

	return true
}
