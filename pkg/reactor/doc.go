// Package reactor builds and orders the dependency graph of a build session.
//
// [Build] turns the candidate units into a [Graph] with one vertex per
// versionless coordinate. A unit gets an edge to every declared dependency
// and to its parent POM, as long as the target is itself a candidate.
// [Graph.Order] returns units with dependencies and parents first, which is
// the order in which the orchestrator builds them; [Reverse] gives the
// teardown order.
//
// Two rules shape the graph:
//
//   - Duplicate coordinates are rejected before any edge exists. Two
//     candidates that collapse onto one groupId:artifactId point at a broken
//     candidate resolution, not at something the graph can reconcile.
//   - When a unit's parent already has an edge back to that unit, the stray
//     edge is removed so the parent-first edge can be added. A genuine cycle
//     anywhere else fails the whole session.
//
// The graph can also be exported with [Graph.DOT] and rendered through
// Graphviz with [RenderSVG].
package reactor
