package reactor

import (
	stderrors "errors"
	"slices"

	"github.com/matzehuels/ondemand/pkg/dag"
	"github.com/matzehuels/ondemand/pkg/errors"
	"github.com/matzehuels/ondemand/pkg/project"
)

// Graph is the build graph over one session's candidate units.
// Edges point from a dependent unit to the unit it needs built first.
type Graph struct {
	dag   *dag.DAG
	units map[string]*project.Unit
}

// Build creates the build graph for units.
//
// Every unit becomes a vertex keyed by its versionless coordinate. Declared
// dependencies and parents that are themselves candidates become edges;
// references to anything outside the candidate set are ignored.
//
// Build fails with ErrCodeDuplicateUnit before any edge is added when two
// units share a coordinate, and with ErrCodeCycleDetected (wrapping a
// *dag.CycleError) when the units depend on each other in a loop.
func Build(units []*project.Unit) (*Graph, error) {
	g := &Graph{
		dag:   dag.New(),
		units: make(map[string]*project.Unit, len(units)),
	}

	for _, u := range units {
		key := u.Key().String()
		if err := g.dag.AddVertex(key); err != nil {
			if stderrors.Is(err, dag.ErrDuplicateNodeID) {
				prev := g.units[key]
				return nil, errors.New(errors.ErrCodeDuplicateUnit,
					"duplicate build unit %s (%s and %s)", key, prev.ID(), u.ID())
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "unit %q", u.ID())
		}
		g.units[key] = u
	}

	for _, u := range units {
		from := u.Key().String()
		for _, d := range u.Dependencies {
			to := d.String()
			if to == from || !g.dag.HasVertex(to) {
				continue
			}
			if err := g.addEdge(u, from, to); err != nil {
				return nil, err
			}
		}
	}

	for _, u := range units {
		if u.Parent == nil {
			continue
		}
		from, to := u.Key().String(), u.Parent.String()
		if to == from || !g.dag.HasVertex(to) {
			continue
		}
		// The parent must build first; a parent→child edge left over from
		// reactor ordering is dropped instead of reported as a cycle.
		if g.dag.HasEdge(to, from) {
			g.dag.RemoveEdge(to, from)
		}
		if err := g.addEdge(u, from, to); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (g *Graph) addEdge(u *project.Unit, from, to string) error {
	err := g.dag.AddEdge(from, to)
	if err == nil {
		return nil
	}
	var ce *dag.CycleError
	if stderrors.As(err, &ce) {
		return errors.Wrap(errors.ErrCodeCycleDetected, ce, "unit %s", u.ID())
	}
	return errors.Wrap(errors.ErrCodeInternal, err, "add edge %s -> %s", from, to)
}

// Order returns the units so that every dependency and parent precedes its
// dependents. Unrelated units keep their input order.
func (g *Graph) Order() ([]*project.Unit, error) {
	keys, err := g.dag.TopologicalSort()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycleDetected, err, "order build units")
	}
	units := make([]*project.Unit, len(keys))
	for i, k := range keys {
		units[i] = g.units[k]
	}
	return units, nil
}

// Reverse returns a new slice with units in exactly the opposite order.
// Teardown uses the reverse of the build order rather than a separate sort.
func Reverse(units []*project.Unit) []*project.Unit {
	r := slices.Clone(units)
	slices.Reverse(r)
	return r
}

// Unit returns the unit stored under the versionless key.
func (g *Graph) Unit(key string) (*project.Unit, bool) {
	u, ok := g.units[key]
	return u, ok
}

// DependenciesOf returns the keys a unit must wait for, in edge order.
func (g *Graph) DependenciesOf(key string) []string { return g.dag.Children(key) }

// Edges returns every edge as a [dependent, dependency] pair.
func (g *Graph) Edges() [][2]string { return g.dag.Edges() }

// Len returns the number of units in the graph.
func (g *Graph) Len() int { return g.dag.VertexCount() }

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int { return g.dag.EdgeCount() }
