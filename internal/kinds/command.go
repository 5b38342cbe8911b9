package kinds

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
)

const maxOutputTail = 2048

// Commands returns a factory that runs templates[kind] through sh -c for the
// kinds that have a template and defers to fallback for the others.
//
// Templates reference ${node}, ${kind}, ${workdir}, ${threads}, ${cores},
// every parameter by name, ${in_<port>} for input values and ${out_<port>}
// for the path an output must be written to. A scalar-metric output is read
// back from its file as a single number.
func Commands(templates map[string]string, fallback Bodies) Bodies {
	return func(k *registry.Kind) registry.Body {
		tmpl, ok := templates[k.Name]
		if !ok {
			if fallback == nil {
				return nil
			}
			return fallback(k)
		}
		return commandBody(k, tmpl)
	}
}

func commandBody(k *registry.Kind, tmpl string) registry.Body {
	outputs := k.Outputs()
	return func(ctx context.Context, inv *registry.Invocation) (map[string]any, error) {
		logger := ctxlog.FromContext(ctx)
		if inv.Workdir != "" {
			// The script runs inside the workdir, so artifact paths must not
			// be relative to it.
			abs, err := filepath.Abs(inv.Workdir)
			if err != nil {
				return nil, fmt.Errorf("node '%s': resolving workdir: %w", inv.NodeID, err)
			}
			resolved := *inv
			resolved.Workdir = abs
			inv = &resolved
			if err := os.MkdirAll(inv.Workdir, 0o755); err != nil {
				return nil, fmt.Errorf("node '%s': creating workdir: %w", inv.NodeID, err)
			}
		}

		script := os.Expand(tmpl, func(name string) string {
			return lookup(inv, name)
		})
		logger.Debug("Running command.", "node", inv.NodeID, "script", script)

		var buf bytes.Buffer
		cmd := exec.CommandContext(ctx, "sh", "-c", script)
		cmd.Dir = inv.Workdir
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("node '%s': command failed: %w: %s", inv.NodeID, err, tail(buf.String()))
		}

		out := make(map[string]any, len(outputs))
		for _, p := range outputs {
			path := ArtifactPath(inv.Workdir, inv.NodeID, p.Name)
			if p.Type != port.ScalarMetric {
				out[p.Name] = port.Artifact{Path: path}
				continue
			}
			raw, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("node '%s': reading metric '%s': %w", inv.NodeID, p.Name, err)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
			if err != nil {
				return nil, fmt.Errorf("node '%s': metric '%s' is not a number: %w", inv.NodeID, p.Name, err)
			}
			out[p.Name] = port.Metric{Key: metricKey(inv), Value: v}
		}
		return out, nil
	}
}

func lookup(inv *registry.Invocation, name string) string {
	switch name {
	case "node":
		return inv.NodeID
	case "kind":
		return inv.Kind
	case "workdir":
		return inv.Workdir
	case "threads":
		return strconv.Itoa(inv.Resources.ThreadCount())
	case "cores":
		return strconv.Itoa(inv.Resources.Cores)
	}
	if p, ok := strings.CutPrefix(name, "in_"); ok {
		values := inv.Values(p)
		parts := make([]string, len(values))
		for i, v := range values {
			parts[i] = render(v)
		}
		return strings.Join(parts, " ")
	}
	if p, ok := strings.CutPrefix(name, "out_"); ok {
		return ArtifactPath(inv.Workdir, inv.NodeID, p)
	}
	return inv.Param(name)
}

func render(v any) string {
	switch x := v.(type) {
	case port.Artifact:
		return x.Path
	case port.Metric:
		return strconv.FormatFloat(x.Value, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutputTail {
		return "..." + s[len(s)-maxOutputTail:]
	}
	return s
}
