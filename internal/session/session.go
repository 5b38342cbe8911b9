// Package session defines the interfaces for creating and managing one
// workflow run. It hides which backend family the run dispatches to.
package session

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/config"
	"github.com/specialistvlad/sweepgridgo/internal/executor"
)

// SessionFactory creates an execution Session from a loaded configuration.
type SessionFactory interface {
	NewSession(ctx context.Context, cfg *config.Model) (Session, error)
}

// Session represents a single run and manages its lifecycle.
type Session interface {
	// ID identifies the run in logs and reports.
	ID() string
	GetExecutor() (executor.Executor, error)
	// Plan returns the ready batches of the declared graph without running
	// anything.
	Plan(ctx context.Context) ([][]string, error)
	// Close releases the backend. It accepts a context to bound the
	// shutdown of in-flight work.
	Close(ctx context.Context) error
}
