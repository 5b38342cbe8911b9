package reduce

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

const (
	// KindAverageRMSD averages the per-fold assessments of one cost value.
	KindAverageRMSD = "average_rmsd"
	// KindSelectLowestRMSD picks the cost with the lowest average RMSD.
	KindSelectLowestRMSD = "select_lowest_rmsd"
)

// Module registers the reduction kinds. Their default profile is a short
// single-core job.
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	short := resource.Spec{Partition: "core", Cores: 1, Time: "15:00", Threads: 1}
	r.Register(&registry.Kind{
		Name: KindAverageRMSD,
		Ports: []port.Spec{
			port.FanInSpec("assessments", port.ScalarMetric, false),
			port.OutSpec("rmsdavg", port.ScalarMetric),
		},
		Params:    []registry.Param{{Name: "lin_cost", Required: true}},
		Resources: short,
		Body:      averageBody,
	})
	r.Register(&registry.Kind{
		Name: KindSelectLowestRMSD,
		Ports: []port.Spec{
			port.FanInSpec("values", port.ScalarMetric, true),
			port.OutSpec("best", port.ScalarMetric),
		},
		Resources: short,
		Body:      selectLowestBody,
	})
}

func averageBody(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
	metrics, err := Metrics(inv.Values("assessments"))
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", inv.NodeID, err)
	}
	values := make([]float64, len(metrics))
	for i, m := range metrics {
		values[i] = m.Value
	}
	avg, err := Average(values)
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", inv.NodeID, err)
	}
	cost := inv.Param("lin_cost")
	ctxlog.FromContext(ctx).Info("Average RMSD computed.", "cost", cost, "folds", len(values), "rmsd", avg)
	return map[string]any{"rmsdavg": port.Metric{Key: cost, Value: avg}}, nil
}

func selectLowestBody(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
	metrics, err := Metrics(inv.Values("values"))
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", inv.NodeID, err)
	}
	best, err := SelectExtremum(metrics, Min)
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", inv.NodeID, err)
	}
	ctxlog.FromContext(ctx).Info("Lowest RMSD selected.", "cost", best.Key, "rmsd", best.Value, "candidates", len(metrics))
	return map[string]any{"best": best}, nil
}
