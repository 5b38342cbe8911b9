package batch

import (
	"context"
	"errors"

	"github.com/specialistvlad/sweepgridgo/internal/backend"
)

// ErrTransient marks cluster errors worth retrying, such as a scheduler
// that is momentarily unreachable.
var ErrTransient = errors.New("transient cluster error")

// RunFunc is the work a cluster job performs.
type RunFunc func(ctx context.Context) (map[string]any, error)

// Cluster is the batch scheduler collaborator. Job ids are opaque strings.
type Cluster interface {
	Submit(ctx context.Context, desc JobDescriptor, run RunFunc) (string, error)
	Query(ctx context.Context, jobID string) (backend.Status, error)
	Cancel(ctx context.Context, jobID string) error
	Close(ctx context.Context) error
}
