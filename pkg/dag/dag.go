package dag

import (
	"errors"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddVertex] when the vertex ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddVertex] when a vertex with the
	// same ID already exists in the graph. Vertex IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From vertex
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To vertex
	// does not exist in the graph.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrCycle is matched by every [*CycleError] through errors.Is.
	ErrCycle = errors.New("graph contains a cycle")
)

// CycleError reports an edge that would close a directed cycle.
// Path lists the vertices of the cycle, starting and ending with the same ID.
// When a→b→c exists and c→a is rejected, Path is [c a b c]: the first hop is
// the rejected edge itself.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}

// Is makes errors.Is(err, ErrCycle) true for any *CycleError.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// DAG is a directed acyclic graph keyed by string vertex IDs.
//
// Vertices are stored by insertion index with adjacency lists of indices,
// so iteration order is always deterministic. Every edge insertion is checked
// for cycles; a DAG therefore never holds a cycle.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	ids   []string
	index map[string]int
	out   [][]int // vertex index -> target indices, in insertion order
	edges int
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{index: make(map[string]int)}
}

// AddVertex adds a vertex. Returns ErrInvalidNodeID if id is empty, or
// ErrDuplicateNodeID if a vertex with the same ID already exists.
func (d *DAG) AddVertex(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.index[id]; exists {
		return ErrDuplicateNodeID
	}
	d.index[id] = len(d.ids)
	d.ids = append(d.ids, id)
	d.out = append(d.out, nil)
	return nil
}

// HasVertex reports whether id is a vertex of the graph.
func (d *DAG) HasVertex(id string) bool {
	_, ok := d.index[id]
	return ok
}

// AddEdge adds the directed edge from→to.
//
// Returns ErrUnknownSourceNode or ErrUnknownTargetNode if either endpoint is
// missing, and a *CycleError if the edge would close a cycle (self edges
// included). Adding an edge that already exists is a no-op.
func (d *DAG) AddEdge(from, to string) error {
	fi, ok := d.index[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	ti, ok := d.index[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(d.out[fi], ti) {
		return nil
	}
	if path := d.path(ti, fi); path != nil {
		cycle := make([]string, 0, len(path)+1)
		cycle = append(cycle, from)
		for _, i := range path {
			cycle = append(cycle, d.ids[i])
		}
		return &CycleError{Path: cycle}
	}
	d.out[fi] = append(d.out[fi], ti)
	d.edges++
	return nil
}

// HasEdge reports whether the edge from→to exists.
func (d *DAG) HasEdge(from, to string) bool {
	fi, ok := d.index[from]
	if !ok {
		return false
	}
	ti, ok := d.index[to]
	if !ok {
		return false
	}
	return slices.Contains(d.out[fi], ti)
}

// RemoveEdge removes the edge from→to if it exists.
// No error is returned if the edge does not exist.
func (d *DAG) RemoveEdge(from, to string) {
	fi, ok := d.index[from]
	if !ok {
		return
	}
	ti, ok := d.index[to]
	if !ok {
		return
	}
	before := len(d.out[fi])
	d.out[fi] = slices.DeleteFunc(d.out[fi], func(i int) bool { return i == ti })
	d.edges -= before - len(d.out[fi])
}

// Children returns the IDs of the vertices id has edges to, in insertion order.
// Returns nil if the vertex has no children or doesn't exist.
func (d *DAG) Children(id string) []string {
	i, ok := d.index[id]
	if !ok || len(d.out[i]) == 0 {
		return nil
	}
	children := make([]string, len(d.out[i]))
	for k, c := range d.out[i] {
		children[k] = d.ids[c]
	}
	return children
}

// Vertices returns all vertex IDs in insertion order.
func (d *DAG) Vertices() []string { return slices.Clone(d.ids) }

// Edges returns all edges as [from, to] pairs, grouped by source vertex in
// insertion order.
func (d *DAG) Edges() [][2]string {
	edges := make([][2]string, 0, d.edges)
	for fi, targets := range d.out {
		for _, ti := range targets {
			edges = append(edges, [2]string{d.ids[fi], d.ids[ti]})
		}
	}
	return edges
}

// VertexCount returns the number of vertices in the graph.
func (d *DAG) VertexCount() int { return len(d.ids) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return d.edges }

// TopologicalSort returns every vertex such that for each edge u→v, v comes
// before u. Ties between unrelated vertices follow insertion order.
//
// The graph cannot hold a cycle, but the DFS still tracks in-progress
// vertices and reports a *CycleError if it ever meets a back edge.
func (d *DAG) TopologicalSort() ([]string, error) {
	const (
		white = iota
		gray
		black
	)

	color := make([]int, len(d.ids))
	order := make([]string, 0, len(d.ids))
	var stack []int
	var cycle *CycleError

	var dfs func(i int)
	dfs = func(i int) {
		color[i] = gray
		stack = append(stack, i)
		for _, c := range d.out[i] {
			if cycle != nil {
				return
			}
			switch color[c] {
			case white:
				dfs(c)
			case gray:
				cycle = d.cycleFromStack(stack, c)
				return
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
		order = append(order, d.ids[i])
	}

	for i := range d.ids {
		if color[i] == white {
			dfs(i)
			if cycle != nil {
				return nil, cycle
			}
		}
	}
	return order, nil
}

// path returns the vertex indices of a directed path from→…→to (both
// inclusive), or nil when to is unreachable from from.
func (d *DAG) path(from, to int) []int {
	visited := make([]bool, len(d.ids))
	var stack []int

	var dfs func(i int) bool
	dfs = func(i int) bool {
		visited[i] = true
		stack = append(stack, i)
		if i == to {
			return true
		}
		for _, c := range d.out[i] {
			if !visited[c] && dfs(c) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		return false
	}

	if dfs(from) {
		return stack
	}
	return nil
}

func (d *DAG) cycleFromStack(stack []int, back int) *CycleError {
	start := slices.Index(stack, back)
	path := make([]string, 0, len(stack)-start+1)
	for _, i := range stack[start:] {
		path = append(path, d.ids[i])
	}
	path = append(path, d.ids[back])
	return &CycleError{Path: path}
}
