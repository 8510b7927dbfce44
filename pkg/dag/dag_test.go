package dag

import (
	"errors"
	"slices"
	"testing"
)

func newGraph(t *testing.T, vertices ...string) *DAG {
	t.Helper()
	g := New()
	for _, v := range vertices {
		if err := g.AddVertex(v); err != nil {
			t.Fatalf("AddVertex(%q): %v", v, err)
		}
	}
	return g
}

func TestAddVertex(t *testing.T) {
	g := New()
	if err := g.AddVertex(""); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddVertex(\"\") = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddVertex("a"); err != nil {
		t.Fatalf("AddVertex(a) = %v", err)
	}
	if err := g.AddVertex("a"); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddVertex(a) twice = %v, want ErrDuplicateNodeID", err)
	}
	if !g.HasVertex("a") || g.HasVertex("b") {
		t.Error("HasVertex() reports wrong membership")
	}
}

func TestAddEdge_UnknownEndpoints(t *testing.T) {
	g := newGraph(t, "a")
	if err := g.AddEdge("x", "a"); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(x, a) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge("a", "x"); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a, x) = %v, want ErrUnknownTargetNode", err)
	}
}

func TestAddEdge_Duplicate(t *testing.T) {
	g := newGraph(t, "a", "b")
	_ = g.AddEdge("a", "b")
	if err := g.AddEdge("a", "b"); err != nil {
		t.Fatalf("AddEdge() duplicate = %v", err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestAddEdge_Cycles(t *testing.T) {
	tests := []struct {
		name     string
		vertices []string
		edges    [][2]string
		closing  [2]string
		wantPath []string
	}{
		{
			name:     "self edge",
			vertices: []string{"a"},
			closing:  [2]string{"a", "a"},
			wantPath: []string{"a", "a"},
		},
		{
			name:     "two cycle",
			vertices: []string{"a", "b"},
			edges:    [][2]string{{"a", "b"}},
			closing:  [2]string{"b", "a"},
			wantPath: []string{"b", "a", "b"},
		},
		{
			name:     "triangle",
			vertices: []string{"a", "b", "c"},
			edges:    [][2]string{{"a", "b"}, {"b", "c"}},
			closing:  [2]string{"c", "a"},
			wantPath: []string{"c", "a", "b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGraph(t, tt.vertices...)
			for _, e := range tt.edges {
				if err := g.AddEdge(e[0], e[1]); err != nil {
					t.Fatalf("AddEdge(%v): %v", e, err)
				}
			}

			err := g.AddEdge(tt.closing[0], tt.closing[1])
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("AddEdge(%v) = %v, want cycle error", tt.closing, err)
			}
			var ce *CycleError
			if !errors.As(err, &ce) {
				t.Fatalf("error %T is not *CycleError", err)
			}
			if !slices.Equal(ce.Path, tt.wantPath) {
				t.Errorf("Path = %v, want %v", ce.Path, tt.wantPath)
			}
			if g.EdgeCount() != len(tt.edges) {
				t.Errorf("EdgeCount() = %d, want %d (rejected edge must not be stored)", g.EdgeCount(), len(tt.edges))
			}
		})
	}
}

func TestRemoveEdge(t *testing.T) {
	g := newGraph(t, "a", "b")
	_ = g.AddEdge("a", "b")

	g.RemoveEdge("a", "b")
	if g.HasEdge("a", "b") {
		t.Error("HasEdge() after RemoveEdge() = true")
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}

	// Removing the edge makes the reverse direction legal.
	if err := g.AddEdge("b", "a"); err != nil {
		t.Errorf("AddEdge(b, a) after removal = %v", err)
	}

	// Missing edges and vertices are ignored.
	g.RemoveEdge("a", "b")
	g.RemoveEdge("x", "y")
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestTopologicalSort_DependenciesFirst(t *testing.T) {
	g := newGraph(t, "app", "web", "lib", "core", "util")
	edges := [][2]string{
		{"app", "web"},
		{"app", "lib"},
		{"web", "lib"},
		{"lib", "core"},
		{"web", "util"},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort() = %v", err)
	}
	if len(order) != 5 {
		t.Fatalf("len(order) = %d, want 5", len(order))
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		if pos[e[1]] >= pos[e[0]] {
			t.Errorf("edge %s->%s: %s at %d, %s at %d", e[0], e[1], e[1], pos[e[1]], e[0], pos[e[0]])
		}
	}
}

func TestTopologicalSort_StableTies(t *testing.T) {
	g := newGraph(t, "c", "a", "b")
	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"c", "a", "b"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v (insertion order)", order, want)
	}

	// b depends on d; d is emitted right before b, others keep their places.
	_ = g.AddVertex("d")
	_ = g.AddEdge("b", "d")
	order, _ = g.TopologicalSort()
	if want := []string{"c", "a", "d", "b"}; !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestChildrenAndVertices(t *testing.T) {
	g := newGraph(t, "a", "b", "c")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("a", "b")

	if got := g.Children("a"); !slices.Equal(got, []string{"c", "b"}) {
		t.Errorf("Children(a) = %v, want [c b]", got)
	}
	if got := g.Children("b"); got != nil {
		t.Errorf("Children(b) = %v, want nil", got)
	}
	if got := g.Children("missing"); got != nil {
		t.Errorf("Children(missing) = %v, want nil", got)
	}
	if got := g.Vertices(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Vertices() = %v", got)
	}
}
