// Package dag provides a small directed acyclic graph keyed by string IDs,
// used to order build units so that dependencies are built first.
//
// # Basic Usage
//
// Create a new graph with [New], add vertices with [DAG.AddVertex], and edges
// with [DAG.AddEdge]. An edge u→v reads "u depends on v":
//
//	g := dag.New()
//	g.AddVertex("app")
//	g.AddVertex("lib")
//	g.AddEdge("app", "lib")
//	order, _ := g.TopologicalSort() // [lib app]
//
// # Cycles
//
// Cycles are rejected at insertion time. [DAG.AddEdge] searches for a path
// from the edge's target back to its source before inserting it; if one
// exists the edge is refused with a [*CycleError] whose Path names every
// vertex on the cycle. Callers can match any cycle with errors.Is(err, ErrCycle).
//
// # Ordering
//
// [DAG.TopologicalSort] is a depth-first post-order walk that visits vertices
// in insertion order and children in edge insertion order. The result is
// deterministic for a given construction sequence, which keeps build logs
// reproducible and tests stable.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph.
package dag
