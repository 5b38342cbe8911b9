package scheduler

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
)

// Resolve returns the ready batches of a graph in execution order, assuming
// every node succeeds. Nodes within a batch may run concurrently.
func Resolve(ctx context.Context, g graph.Graph) ([][]string, error) {
	f, err := NewFrontier(ctx, g)
	if err != nil {
		return nil, err
	}

	var batches [][]string
	for batch := f.Ready(); len(batch) > 0; batch = f.Ready() {
		for _, id := range batch {
			if err := f.Take(id); err != nil {
				return nil, err
			}
		}
		for _, id := range batch {
			if _, err := f.Complete(id); err != nil {
				return nil, err
			}
		}
		batches = append(batches, batch)
	}
	ctxlog.FromContext(ctx).Debug("Resolved execution order.", "batches", len(batches))
	return batches, nil
}
