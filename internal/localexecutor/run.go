package localexecutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/backend"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/scheduler"
	"github.com/specialistvlad/sweepgridgo/internal/task"
)

type flight struct {
	handle    backend.Handle
	kind      string
	submitted time.Time
}

// run is the state of one Execute call.
type run struct {
	*Executor
	frontier *scheduler.Frontier
	inflight map[string]*flight
}

// loop drives the frontier. It returns the cancellation cause if ctx was
// cancelled before every node settled.
func (r *run) loop(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	r.submit(ctx, r.frontier.Ready())
	for !r.frontier.Done() {
		select {
		case <-ctx.Done():
			r.cancel(ctx)
			return context.Cause(ctx)
		case <-ticker.C:
		}
		r.submit(ctx, r.poll(ctx))
	}
	return nil
}

// submit hands ready nodes to the backend in insertion order. Failures
// during submission can make partial fan-ins ready, so it keeps going until
// nothing new is ready.
func (r *run) submit(ctx context.Context, ready []string) {
	logger := ctxlog.FromContext(ctx)
	for len(ready) > 0 {
		var next []string
		for _, id := range ready {
			if ctx.Err() != nil {
				return
			}
			if err := r.frontier.Take(id); err != nil {
				logger.Error("Frontier refused to hand out a ready node.", "node", id, "error", err)
				continue
			}
			n, _ := r.graph.Node(ctx, id)
			_ = r.graph.MarkReady(ctx, id)

			t, err := task.Build(ctx, r.graph, r.registry, n, r.opts.Workdir)
			if err != nil {
				next = append(next, r.fail(ctx, id, err)...)
				continue
			}
			h, err := r.backend.Submit(ctx, t)
			if err != nil {
				logger.Error("Task submission failed.", "node", id, "error", err)
				next = append(next, r.fail(ctx, id, err)...)
				continue
			}
			if err := r.graph.MarkRunning(ctx, id); err != nil {
				logger.Warn("Could not mark node running.", "node", id, "error", err)
			}
			r.inflight[id] = &flight{handle: h, kind: n.Kind, submitted: time.Now()}
			r.opts.Metrics.TaskSubmitted(r.backend.Name(), n.Kind)
			logger.Info("Task submitted.", "node", id, "kind", n.Kind, "handle", h)
		}
		ready = next
	}
}

// poll checks every in-flight handle once and settles the terminal ones. It
// returns the nodes that became ready.
func (r *run) poll(ctx context.Context) []string {
	logger := ctxlog.FromContext(ctx)
	var ready []string
	for _, id := range r.frontier.InFlight() {
		f, ok := r.inflight[id]
		if !ok {
			continue
		}
		st, err := r.backend.Poll(ctx, f.handle)
		switch {
		case errors.Is(err, backend.ErrUnknownHandle):
			ready = append(ready, r.settleFailed(ctx, id, f, err)...)
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ready
			}
			logger.Warn("Polling task failed; will retry on the next tick.", "node", id, "error", err)
			continue
		case !st.State.Terminal():
			continue
		}

		if st.State != backend.Succeeded {
			cause := st.Err
			if cause == nil {
				cause = fmt.Errorf("task ended %s", st.State)
			}
			ready = append(ready, r.settleFailed(ctx, id, f, cause)...)
			continue
		}

		delete(r.inflight, id)
		if err := r.graph.MarkCompleted(ctx, id, st.Outputs); err != nil {
			logger.Error("Could not publish node outputs.", "node", id, "error", err)
		}
		r.opts.Metrics.TaskSettled(f.kind, "completed", time.Since(f.submitted))
		next, err := r.frontier.Complete(id)
		if err != nil {
			logger.Error("Frontier rejected completion.", "node", id, "error", err)
			continue
		}
		logger.Info("Task completed.", "node", id, "unblocked", len(next))
		ready = append(ready, next...)
	}
	return ready
}

func (r *run) settleFailed(ctx context.Context, id string, f *flight, cause error) []string {
	delete(r.inflight, id)
	r.opts.Metrics.TaskSettled(f.kind, "failed", time.Since(f.submitted))
	return r.fail(ctx, id, cause)
}

// fail records a failed node, skips what can no longer run and returns the
// partial fan-ins that became ready.
func (r *run) fail(ctx context.Context, id string, cause error) []string {
	logger := ctxlog.FromContext(ctx)
	logger.Error("Task failed.", "node", id, "error", cause)
	if err := r.graph.MarkFailed(ctx, id, cause); err != nil {
		logger.Warn("Could not record node failure.", "node", id, "error", err)
	}
	ready, skipped, err := r.frontier.Fail(id)
	if err != nil {
		logger.Error("Frontier rejected failure.", "node", id, "error", err)
		return nil
	}
	if len(skipped) > 0 {
		r.skip(ctx, skipped, fmt.Errorf("upstream '%s' failed: %w", id, cause))
		logger.Warn("Skipping dependents of failed task.", "node", id, "skipped", strings.Join(skipped, ","))
	}
	return ready
}

func (r *run) skip(ctx context.Context, ids []string, cause error) {
	for _, id := range ids {
		if err := r.graph.MarkSkipped(ctx, id, cause); err != nil {
			ctxlog.FromContext(ctx).Warn("Could not mark node skipped.", "node", id, "error", err)
		}
		if n, ok := r.graph.Node(ctx, id); ok {
			r.opts.Metrics.TaskSkipped(n.Kind)
		}
	}
}

// cancel propagates cancellation: every in-flight handle is cancelled and
// its node failed, and every node never submitted is skipped.
func (r *run) cancel(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)
	cause := context.Cause(ctx)
	bg := context.WithoutCancel(ctx)

	inflight := r.frontier.InFlight()
	logger.Warn("Workflow cancelled.", "in_flight", len(inflight), "cause", cause)
	for _, id := range inflight {
		f := r.inflight[id]
		if err := r.backend.Cancel(bg, f.handle); err != nil {
			logger.Warn("Could not cancel task.", "node", id, "error", err)
		}
		r.settleFailed(bg, id, f, fmt.Errorf("cancelled while running: %w", backend.ErrCancelled))
	}
	r.skip(bg, r.frontier.SkipRemaining(), fmt.Errorf("not submitted before cancellation: %w", cause))
}
