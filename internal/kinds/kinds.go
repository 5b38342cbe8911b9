// Package kinds assembles the task-kind catalog of the molecular-property
// pipeline and attaches bodies to it.
//
// The modules under modules/ only declare schemas: ports, parameters and
// default resource profiles. What a kind actually does is decided here, by a
// Bodies factory: DryRun fabricates references without touching any data,
// Commands runs a configured shell command per kind.
package kinds

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/reduce"
	"github.com/specialistvlad/sweepgridgo/internal/registry"
	"github.com/specialistvlad/sweepgridgo/modules/dataset"
	"github.com/specialistvlad/sweepgridgo/modules/files"
	"github.com/specialistvlad/sweepgridgo/modules/liblinear"
	"github.com/specialistvlad/sweepgridgo/modules/svm"
)

// Bodies returns the body for a kind, or nil to leave the kind without one.
type Bodies func(k *registry.Kind) registry.Body

// Modules is the definitive list of kind modules compiled into the binary.
func Modules() []registry.Module {
	return []registry.Module{
		&dataset.Module{},
		&files.Module{},
		&liblinear.Module{},
		&svm.Module{},
		reduce.Module{},
	}
}

// Register declares every kind on reg and attaches bodies from the factory
// to the kinds that do not bring their own.
func Register(ctx context.Context, reg *registry.Registry, bodies Bodies) error {
	for _, m := range Modules() {
		m.Register(reg)
	}
	attached := 0
	for _, name := range reg.Names() {
		k, _ := reg.Lookup(name)
		if k.Body != nil {
			continue
		}
		body := bodies(k)
		if body == nil {
			continue
		}
		if err := reg.SetBody(name, body); err != nil {
			return fmt.Errorf("attaching body: %w", err)
		}
		attached++
	}
	ctxlog.FromContext(ctx).Debug("Task kinds registered.", "kinds", len(reg.Names()), "bodies_attached", attached)
	return reg.Validate(ctx)
}

// metricKeyParams are the parameters that label a scalar metric, in order
// of preference.
var metricKeyParams = []string{"lin_cost", "svm_cost"}

func metricKey(inv *registry.Invocation) string {
	for _, p := range metricKeyParams {
		if v := inv.Param(p); v != "" {
			return v
		}
	}
	return inv.NodeID
}
