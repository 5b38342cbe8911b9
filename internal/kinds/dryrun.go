package kinds

import (
	"context"
	"hash/fnv"
	"path/filepath"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
)

// DryRun gives every kind a body that publishes an artifact path per output
// port and a deterministic pseudo-metric per scalar output. Nothing is read
// or written.
func DryRun(k *registry.Kind) registry.Body {
	outputs := k.Outputs()
	return func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		out := make(map[string]any, len(outputs))
		for _, p := range outputs {
			if p.Type == port.ScalarMetric {
				out[p.Name] = port.Metric{Key: metricKey(inv), Value: pseudoMetric(inv.NodeID)}
				continue
			}
			out[p.Name] = port.Artifact{Path: ArtifactPath(inv.Workdir, inv.NodeID, p.Name)}
		}
		ctxlog.FromContext(ctx).Debug("Dry-run body finished.", "node", inv.NodeID, "outputs", len(out))
		return out, nil
	}
}

// ArtifactPath is where a node's output port lives under workdir.
func ArtifactPath(workdir, nodeID, portName string) string {
	return filepath.Join(workdir, nodeID+"."+portName)
}

// pseudoMetric maps a node id to a stable value in [0, 1).
func pseudoMetric(id string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return float64(h.Sum64()%1_000_000) / 1_000_000
}
