// Package localexecutor provides the in-process implementation of the
// executor.Executor interface. The driver loop runs on the calling goroutine;
// task bodies run wherever the configured backend puts them.
package localexecutor

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/executor"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/metrics"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/report"
	"github.com/specialistvlad/sweepgridgo/internal/scheduler"
)

var _ executor.Executor = (*Executor)(nil)

// DefaultPollInterval is how often in-flight handles are polled.
const DefaultPollInterval = 50 * time.Millisecond

// Options tune the driver.
type Options struct {
	// Workflow names the run in the report.
	Workflow string
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Workdir is passed to every task body.
	Workdir string
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Executor implements executor.Executor.
type Executor struct {
	graph    graph.Graph
	registry *registry.Registry
	backend  backend.Backend
	opts     Options

	report *report.Report
}

// New creates a driver for g that dispatches to be.
func New(g graph.Graph, reg *registry.Registry, be backend.Backend, opts Options) *Executor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Executor{graph: g, registry: reg, backend: be, opts: opts}
}

// Report returns the outcome of the last Execute call.
func (e *Executor) Report() *report.Report {
	return e.report
}

// Execute validates the graph, then runs it until every node is terminal or
// ctx is cancelled. Graph integrity errors are returned before anything is
// submitted.
func (e *Executor) Execute(ctx context.Context) error {
	ctx, logger := ctxlog.With(ctx, "backend", e.backend.Name())
	started := time.Now()

	frontier, err := scheduler.NewFrontier(ctx, e.graph)
	if err != nil {
		return err
	}

	r := &run{Executor: e, frontier: frontier, inflight: make(map[string]*flight)}
	logger.Info("Workflow started.", "workflow", e.opts.Workflow, "nodes", len(e.graph.AllNodes(ctx)))
	cancelled := r.loop(ctx)

	rep := report.FromGraph(ctx, e.graph, e.opts.Workflow, e.backend.Name())
	rep.Cancelled = cancelled != nil
	rep.Duration = time.Since(started)
	e.report = rep
	logger.Info("Workflow finished.",
		"completed", rep.Summary.Completed,
		"failed", rep.Summary.Failed,
		"skipped", rep.Summary.Skipped,
		"duration", rep.Duration,
	)

	if err := rep.Err(); err != nil {
		if cancelled != nil {
			return errors.Join(cancelled, err)
		}
		return err
	}
	return cancelled
}
