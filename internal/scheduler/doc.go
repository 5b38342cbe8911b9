// Package scheduler decides which nodes of a sealed graph may execute.
//
// # How It Works
//
// The resolver is a Kahn-style topological sort over the wiring
// directives. Every wire into a node adds one to its in-degree. Nodes with
// in-degree zero form the ready frontier, ordered by insertion order at
// build time so that scheduling is deterministic.
//
// Frontier keeps the in-degrees live while the executor runs: completing a
// node decrements its dependents, and a node whose in-degree reaches zero
// joins the frontier. A failed node skips its dependents transitively,
// except through partial fan-in ports, which tolerate failed producers as
// long as at least one producer survives.
//
// Before any frontier is handed out the graph is validated once: inputs
// without a producer and without a default are DanglingInputError, and
// nodes left with a non-zero in-degree after the sort are reported as a
// CycleDetectedError naming a minimal cycle.
//
// Resolve runs the same frontier to exhaustion assuming every node
// succeeds and returns the ready batches in order.
package scheduler
