package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/sweepgridgo/internal/port"
)

var (
	// ErrSealed is returned by mutating calls after Build.
	ErrSealed = errors.New("graph builder is sealed")
	// ErrNoSinks is returned by Build when no sink was declared.
	ErrNoSinks = errors.New("graph declares no sink node")
)

// DuplicateIDError reports a second node created with an existing id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate task id '%s'", e.ID)
}

// UnknownKindError reports a node of an unregistered kind.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown task kind '%s'", e.Kind)
}

// UnknownNodeError reports a reference to a node that was never created.
type UnknownNodeError struct {
	ID string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown task '%s'", e.ID)
}

// UnknownPortError reports a port name absent from the kind's schema.
type UnknownPortError struct {
	Task      string
	Kind      string
	Port      string
	Direction port.Direction
}

func (e *UnknownPortError) Error() string {
	return fmt.Sprintf("task '%s' (kind '%s') has no %s port '%s'", e.Task, e.Kind, e.Direction, e.Port)
}

// MissingParameterError reports a required parameter that was not supplied.
type MissingParameterError struct {
	Task  string
	Kind  string
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("task '%s' (kind '%s') is missing required parameter '%s'", e.Task, e.Kind, e.Param)
}

// PortDirectionError reports a wire whose endpoint has the wrong direction.
type PortDirectionError struct {
	Ref  port.Ref
	Want port.Direction
}

func (e *PortDirectionError) Error() string {
	return fmt.Sprintf("port '%s' is not an %s port", e.Ref, e.Want)
}

// AlreadyWiredError reports a second producer for a single-producer input
// or a second fan-in for a variadic input.
type AlreadyWiredError struct {
	To       port.Ref
	Existing []port.Ref
}

func (e *AlreadyWiredError) Error() string {
	existing := make([]string, len(e.Existing))
	for i, r := range e.Existing {
		existing[i] = r.String()
	}
	return fmt.Sprintf("input port '%s' is already wired from %s", e.To, strings.Join(existing, ", "))
}

// PortTypeError reports a wire between semantically incompatible ports.
type PortTypeError struct {
	From, To         port.Ref
	FromType, ToType port.Type
}

func (e *PortTypeError) Error() string {
	return fmt.Sprintf("cannot wire '%s' (%s) to '%s' (%s)", e.From, e.FromType, e.To, e.ToType)
}

// EmptyFanInError reports a ConnectMany with no producers.
type EmptyFanInError struct {
	To port.Ref
}

func (e *EmptyFanInError) Error() string {
	return fmt.Sprintf("fan-in to '%s' has no producers", e.To)
}

// PortArityError reports a multi-producer fan-in to a single-producer port.
type PortArityError struct {
	To        port.Ref
	Producers int
}

func (e *PortArityError) Error() string {
	return fmt.Sprintf("input port '%s' accepts a single producer, got %d", e.To, e.Producers)
}

// UnconsumedNodeError lists non-sink nodes with no downstream consumer, or
// nodes that no sink depends on.
type UnconsumedNodeError struct {
	IDs         []string
	Unreachable bool
}

func (e *UnconsumedNodeError) Error() string {
	if e.Unreachable {
		return fmt.Sprintf("nodes not reachable from any sink: %s", strings.Join(e.IDs, ", "))
	}
	return fmt.Sprintf("non-sink nodes without a consumer: %s", strings.Join(e.IDs, ", "))
}
