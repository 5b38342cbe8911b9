// Package report aggregates the terminal statuses of a workflow run into a
// single failure report.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/node"
	"gopkg.in/yaml.v3"
)

// NodeResult is the terminal record of one node.
type NodeResult struct {
	ID      string            `yaml:"id"`
	Kind    string            `yaml:"kind"`
	Status  node.Status       `yaml:"status"`
	Sink    bool              `yaml:"sink,omitempty"`
	Error   string            `yaml:"error,omitempty"`
	Outputs map[string]string `yaml:"outputs,omitempty"`
}

// Summary counts nodes per terminal status.
type Summary struct {
	Total     int `yaml:"total"`
	Completed int `yaml:"completed"`
	Failed    int `yaml:"failed"`
	Skipped   int `yaml:"skipped"`
}

// Report is the outcome of one workflow run.
type Report struct {
	Workflow  string        `yaml:"workflow"`
	Backend   string        `yaml:"backend"`
	Cancelled bool          `yaml:"cancelled,omitempty"`
	Duration  time.Duration `yaml:"duration"`
	Summary   Summary       `yaml:"summary"`
	Sinks     []NodeResult  `yaml:"sinks"`
	// Problems lists every failed or skipped node with its originating error.
	Problems []NodeResult `yaml:"problems,omitempty"`
}

// FromGraph collects the terminal state of every node in g.
func FromGraph(ctx context.Context, g graph.Graph, workflow, backendName string) *Report {
	r := &Report{Workflow: workflow, Backend: backendName}
	for _, n := range g.AllNodes(ctx) {
		status, _ := g.NodeStatus(ctx, n.ID)
		res := NodeResult{ID: n.ID, Kind: n.Kind, Status: status, Sink: n.Sink}
		if err := g.Error(ctx, n.ID); err != nil {
			res.Error = err.Error()
		}

		r.Summary.Total++
		switch status {
		case node.StatusCompleted:
			r.Summary.Completed++
		case node.StatusFailed:
			r.Summary.Failed++
			r.Problems = append(r.Problems, res)
		case node.StatusSkipped:
			r.Summary.Skipped++
			r.Problems = append(r.Problems, res)
		}
		if n.Sink {
			res.Outputs = render(g.Output(ctx, n.ID))
			r.Sinks = append(r.Sinks, res)
		}
	}
	return r
}

// Succeeded reports whether every sink completed.
func (r *Report) Succeeded() bool {
	for _, s := range r.Sinks {
		if s.Status != node.StatusCompleted {
			return false
		}
	}
	return len(r.Sinks) > 0
}

// Err returns a *FailureError if a sink did not complete.
func (r *Report) Err() error {
	if r.Succeeded() {
		return nil
	}
	var sinks []NodeResult
	for _, s := range r.Sinks {
		if s.Status != node.StatusCompleted {
			sinks = append(sinks, s)
		}
	}
	return &FailureError{Workflow: r.Workflow, Sinks: sinks, Problems: r.Problems}
}

// WriteYAML renders the report.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// FailureError is the aggregate error of a run whose sinks did not all
// complete.
type FailureError struct {
	Workflow string
	Sinks    []NodeResult
	Problems []NodeResult
}

func (e *FailureError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow '%s' failed: %d sink(s) did not complete", e.Workflow, len(e.Sinks))
	for _, p := range e.Problems {
		fmt.Fprintf(&b, "\n  %s [%s]", p.ID, p.Status)
		if p.Error != "" {
			fmt.Fprintf(&b, ": %s", p.Error)
		}
	}
	return b.String()
}

func render(outputs map[string]any) map[string]string {
	if len(outputs) == 0 {
		return nil
	}
	out := make(map[string]string, len(outputs))
	for k, v := range outputs {
		out[k] = fmt.Sprint(v)
	}
	return out
}
