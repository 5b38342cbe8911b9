// Package executor defines the interface of the workflow driver.
package executor

import (
	"context"

	"github.com/specialistvlad/sweepgridgo/internal/report"
)

// Executor drives a built graph to completion: it submits ready nodes to a
// backend, polls their handles and propagates failures as skips.
type Executor interface {
	// Execute runs the workflow. It returns a *report.FailureError (possibly
	// joined with the cancellation cause) if a sink did not complete.
	Execute(ctx context.Context) error
	// Report returns the outcome of the last Execute call.
	Report() *report.Report
}
