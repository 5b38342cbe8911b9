// Package localsession provides the in-process implementation of the
// session.Session and session.SessionFactory interfaces: the graph lives in
// memory and is driven by a localexecutor, while the backend is chosen by
// the workflow's run mode.
package localsession

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/backend/batch"
	"github.com/specialistvlad/sweepgridgo/internal/backend/local"
	"github.com/specialistvlad/sweepgridgo/internal/backend/mpipool"
	"github.com/specialistvlad/sweepgridgo/internal/builder"
	"github.com/specialistvlad/sweepgridgo/internal/config"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/executor"
	"github.com/specialistvlad/sweepgridgo/internal/graph"
	"github.com/specialistvlad/sweepgridgo/internal/inmemorystore"
	"github.com/specialistvlad/sweepgridgo/internal/inmemorytopology"
	"github.com/specialistvlad/sweepgridgo/internal/kinds"
	"github.com/specialistvlad/sweepgridgo/internal/localexecutor"
	"github.com/specialistvlad/sweepgridgo/internal/metrics"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/scheduler"
	"github.com/specialistvlad/sweepgridgo/internal/session"
	"github.com/specialistvlad/sweepgridgo/internal/workflow"
)

// Defaults applied when the backend block leaves a setting at zero. The
// local thread budget fits the largest default kind profile.
const (
	DefaultThreads  = 16
	DefaultEnsemble = 4
	DefaultMaxJobs  = 16
)

// SessionFactory implements session.SessionFactory for in-process runs.
type SessionFactory struct {
	// Bodies supplies kind bodies that have no configured command. DryRun
	// is used when nil.
	Bodies kinds.Bodies
	// Workdir is handed to every task body.
	Workdir string
	// Metrics may be nil.
	Metrics *metrics.Metrics
	// Cluster replaces the simulated batch cluster of the hpc run mode.
	Cluster batch.Cluster
}

var _ session.SessionFactory = (*SessionFactory)(nil)

// NewSession wires the stores, the kind registry, the declared workflow, a
// backend and the executor.
func (f *SessionFactory) NewSession(ctx context.Context, cfg *config.Model) (session.Session, error) {
	id := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "session", id)
	logger.Debug("Creating local session.", "workflow", cfg.Workflow.Type, "runmode", cfg.Workflow.RunMode())

	reg := registry.New()
	fallback := f.Bodies
	if fallback == nil {
		fallback = kinds.DryRun
	}
	bodies := fallback
	if len(cfg.Commands) > 0 {
		bodies = kinds.Commands(cfg.Commands, fallback)
	}
	if err := kinds.Register(ctx, reg, bodies); err != nil {
		return nil, fmt.Errorf("registering task kinds: %w", err)
	}

	b := builder.New(reg, inmemorytopology.New(), inmemorystore.New())
	if err := declare(ctx, b, &cfg.Workflow); err != nil {
		return nil, err
	}
	g, err := b.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("building %s graph: %w", cfg.Workflow.Type, err)
	}

	be, err := f.newBackend(cfg)
	if err != nil {
		return nil, err
	}
	exec := localexecutor.New(g, reg, be, localexecutor.Options{
		Workflow:     string(cfg.Workflow.Type),
		PollInterval: cfg.Backend.PollInterval,
		Workdir:      f.Workdir,
		Metrics:      f.Metrics,
	})
	logger.Info("Session ready.", "nodes", len(g.AllNodes(ctx)), "sinks", len(b.Sinks()), "backend", be.Name())

	return &Session{id: id, graph: g, backend: be, executor: exec}, nil
}

func declare(ctx context.Context, b *builder.Builder, wf *config.Workflow) error {
	var err error
	switch wf.Type {
	case config.CrossValidate:
		_, err = workflow.CrossValidate(ctx, b, wf.CrossValidate)
	case config.Train:
		_, err = workflow.Train(ctx, b, wf.Train)
	default:
		err = fmt.Errorf("workflow %q is none of crossval, train", wf.Type)
	}
	if err != nil {
		return fmt.Errorf("declaring %s workflow: %w", wf.Type, err)
	}
	return nil
}

func (f *SessionFactory) newBackend(cfg *config.Model) (backend.Backend, error) {
	tuning := cfg.Backend
	switch mode := cfg.Workflow.RunMode(); mode {
	case resource.RunModeLocal:
		return local.New(orDefault(tuning.Threads, DefaultThreads)), nil
	case resource.RunModeHPC:
		cluster := f.Cluster
		if cluster == nil {
			cluster = batch.NewSimCluster(orDefault(tuning.MaxJobs, DefaultMaxJobs))
		}
		return batch.New(cluster, batch.WithQueryRetries(tuning.QueryRetries, tuning.QueryBackoff)), nil
	case resource.RunModeMPI:
		return mpipool.New(orDefault(tuning.Ensemble, DefaultEnsemble)), nil
	default:
		return nil, fmt.Errorf("runmode %q has no backend", mode)
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// Session implements session.Session for in-process runs.
type Session struct {
	id       string
	graph    graph.Graph
	backend  backend.Backend
	executor *localexecutor.Executor
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// GetExecutor returns the executor wired up by the factory.
func (s *Session) GetExecutor() (executor.Executor, error) {
	if s.executor == nil {
		return nil, errors.New("session has no executor")
	}
	return s.executor, nil
}

// Plan resolves the graph into ready batches.
func (s *Session) Plan(ctx context.Context) ([][]string, error) {
	return scheduler.Resolve(ctx, s.graph)
}

// Close shuts the backend down, cancelling work that is still running.
func (s *Session) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Closing local session.", "session", s.id, "backend", s.backend.Name())
	if err := s.backend.Close(ctx); err != nil && !errors.Is(err, backend.ErrClosed) {
		return fmt.Errorf("closing %s backend: %w", s.backend.Name(), err)
	}
	return nil
}
