package scheduler

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/sweepgridgo/internal/port"
)

// CycleDetectedError reports a dependency cycle. Cycle lists a minimal
// cycle with its first node repeated at the end.
type CycleDetectedError struct {
	Cycle []string
	// Remaining lists every node left with a non-zero in-degree.
	Remaining []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// DanglingInputError lists input ports that have no producer and no default.
type DanglingInputError struct {
	Inputs []port.Ref
}

func (e *DanglingInputError) Error() string {
	refs := make([]string, len(e.Inputs))
	for i, r := range e.Inputs {
		refs[i] = r.String()
	}
	return fmt.Sprintf("input ports never wired: %s", strings.Join(refs, ", "))
}

// StateError reports a frontier call that does not match the node's state.
type StateError struct {
	ID     string
	Action string
	State  string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s node '%s' in state %s", e.Action, e.ID, e.State)
}
