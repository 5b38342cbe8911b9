// Package graph provides a unified facade over the execution graph,
// combining the static topology (nodes and wiring directives) with the
// dynamic node state (status, outputs, errors).
//
// The Graph is a thin facade over two stores:
//
//	┌─────────────────────────────────────┐
//	│           Graph Facade              │
//	│  (resolver, executor and report     │
//	│   query and update through it)      │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │ Node State │
//	  │   Store    │  │   Store    │
//	  │ (Structure)│  │  (Status)  │
//	  └────────────┘  └────────────┘
//
// The builder populates the topology store directly and hands out a Graph
// once it is sealed. From then on the structure is read-only and only node
// state changes, each node written once.
//
// # Usage Patterns
//
// The executor updates state as backends report back:
//
//	g.MarkRunning(ctx, id)
//	st, _ := backend.Poll(ctx, handle)
//	switch st.State {
//	case backend.Succeeded:
//	    g.MarkCompleted(ctx, id, st.Outputs)
//	case backend.Failed, backend.TimedOut, backend.Cancelled:
//	    g.MarkFailed(ctx, id, st.Err)
//	}
//
// Reports walk the whole graph afterwards:
//
//	for _, n := range g.AllNodes(ctx) {
//	    status, _ := g.NodeStatus(ctx, n.ID)
//	    cause := g.Error(ctx, n.ID)
//	}
package graph
