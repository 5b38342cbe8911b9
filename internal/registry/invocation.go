package registry

import (
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

// Invocation is everything a body sees when it runs.
type Invocation struct {
	NodeID string
	Kind   string
	Params map[string]string
	// Inputs maps each input port to its resolved values in supply order.
	// Single-producer ports hold exactly one value.
	Inputs    map[string][]any
	Resources resource.Spec
	// Workdir is the directory under which bodies place their artifacts.
	Workdir string
}

// Input returns the single value of an input port.
func (inv *Invocation) Input(name string) (any, error) {
	values, ok := inv.Inputs[name]
	if !ok || len(values) == 0 {
		return nil, fmt.Errorf("node '%s': input '%s' has no value", inv.NodeID, name)
	}
	return values[0], nil
}

// Values returns every value supplied to an input port.
func (inv *Invocation) Values(name string) []any {
	return inv.Inputs[name]
}

// Param returns a parameter value, or "" if unset.
func (inv *Invocation) Param(name string) string {
	return inv.Params[name]
}
