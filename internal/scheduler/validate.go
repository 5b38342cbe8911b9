package scheduler

import (
	"context"
	"errors"

	dgraph "github.com/dominikbraun/graph"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/port"
)

// Validate checks a sealed graph for dangling inputs and cycles.
func Validate(ctx context.Context, g graph.Graph) error {
	if err := checkDangling(ctx, g); err != nil {
		return err
	}
	return checkCycles(ctx, g)
}

func checkDangling(ctx context.Context, g graph.Graph) error {
	var dangling []port.Ref
	for _, n := range g.AllNodes(ctx) {
		for _, name := range n.InputNames() {
			p := n.Inputs[name]
			if !p.Wired() && p.Spec.Default == nil {
				dangling = append(dangling, p.Ref())
			}
		}
	}
	if len(dangling) > 0 {
		return &DanglingInputError{Inputs: dangling}
	}
	return nil
}

// checkCycles runs a static Kahn pass and, if nodes remain, extracts the
// shortest cycle among them.
func checkCycles(ctx context.Context, g graph.Graph) error {
	nodes := g.AllNodes(ctx)
	wires := g.Wires(ctx)

	indeg := make(map[string]int, len(nodes))
	for _, w := range wires {
		indeg[w.To.Task]++
	}
	queue := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	out := make(map[string][]string, len(nodes))
	for _, w := range wires {
		out[w.From.Task] = append(out[w.From.Task], w.To.Task)
	}
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, dst := range out[id] {
			indeg[dst]--
			if indeg[dst] == 0 {
				queue = append(queue, dst)
			}
		}
	}
	if visited == len(nodes) {
		return nil
	}

	var remaining []string
	for _, n := range nodes {
		if indeg[n.ID] > 0 {
			remaining = append(remaining, n.ID)
		}
	}
	cycle, err := minimalCycle(remaining, wires)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Could not extract a minimal cycle.", "error", err)
		cycle = append(append([]string(nil), remaining...), remaining[0])
	}
	return &CycleDetectedError{Cycle: cycle, Remaining: remaining}
}

// minimalCycle finds the shortest cycle among the nodes that survived the
// Kahn pass. Every edge v->u inside a strongly connected component closes
// the cycle v, shortest(u..v).
func minimalCycle(remaining []string, wires []port.Wire) ([]string, error) {
	inRest := make(map[string]bool, len(remaining))
	for _, id := range remaining {
		inRest[id] = true
	}

	dg := dgraph.New(dgraph.StringHash, dgraph.Directed())
	for _, id := range remaining {
		if err := dg.AddVertex(id); err != nil {
			return nil, err
		}
	}
	var edges [][2]string
	for _, w := range wires {
		from, to := w.From.Task, w.To.Task
		if !inRest[from] || !inRest[to] {
			continue
		}
		if from == to {
			return []string{from, from}, nil
		}
		err := dg.AddEdge(from, to)
		if errors.Is(err, dgraph.ErrEdgeAlreadyExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		edges = append(edges, [2]string{from, to})
	}

	sccs, err := dgraph.StronglyConnectedComponents(dg)
	if err != nil {
		return nil, err
	}
	component := make(map[string]int, len(remaining))
	for i, scc := range sccs {
		for _, id := range scc {
			component[id] = i
		}
	}

	var best []string
	for _, e := range edges {
		v, u := e[0], e[1]
		if component[v] != component[u] {
			continue
		}
		path, err := dgraph.ShortestPath(dg, u, v)
		if err != nil {
			continue
		}
		if best == nil || len(path)+1 < len(best) {
			best = append([]string{v}, path...)
		}
	}
	if best == nil {
		return nil, errors.New("no cycle found among remaining nodes")
	}
	return best, nil
}
