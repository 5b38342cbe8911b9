// Package port models the named attachment points of task nodes and the
// wiring directives that connect them.
//
// A port never carries dataset contents. Output ports publish references
// (Artifact) or scalar metrics (Metric) once their owning task completes, and
// input ports receive whatever their single producer published.
package port

import (
	"fmt"
	"strings"
)

// Direction tells whether a port consumes or produces a value.
type Direction int

const (
	// In marks a port that consumes an upstream value.
	In Direction = iota
	// Out marks a port that publishes a value once its task completes.
	Out
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Type is the semantic type of the reference carried by a port.
type Type string

const (
	// Any matches every other type and is used by generic kinds such as ungzip.
	Any           Type = "any"
	SmilesList    Type = "smiles-list"
	SignatureFile Type = "signature-file"
	Dataset       Type = "dataset"
	SparseMatrix  Type = "sparse-matrix"
	ModelArtifact Type = "model-artifact"
	Prediction    Type = "prediction"
	ScalarMetric  Type = "scalar-metric"
)

// Compatible reports whether an output of type t may feed an input of type other.
func (t Type) Compatible(other Type) bool {
	return t == other || t == Any || other == Any || t == "" || other == ""
}

// Spec is one entry of a task kind's static port schema.
type Spec struct {
	Name      string
	Direction Direction
	Type      Type
	// Variadic input ports take a sequence of producers through a single
	// fan-in instead of exactly one wire.
	Variadic bool
	// Partial fan-ins tolerate failed producers: the owner runs with the
	// surviving values and is skipped only when none survive.
	Partial bool
	// Default resolves an input that never receives a wire. A nil Default
	// makes the input mandatory.
	Default any
}

// InSpec builds an input port spec.
func InSpec(name string, t Type) Spec {
	return Spec{Name: name, Direction: In, Type: t}
}

// OutSpec builds an output port spec.
func OutSpec(name string, t Type) Spec {
	return Spec{Name: name, Direction: Out, Type: t}
}

// FanInSpec builds a variadic input port spec.
func FanInSpec(name string, t Type, partial bool) Spec {
	return Spec{Name: name, Direction: In, Type: t, Variadic: true, Partial: partial}
}

// Ref addresses one port of one task node.
type Ref struct {
	Task string
	Port string
}

// R is shorthand for building a Ref.
func R(task, portName string) Ref {
	return Ref{Task: task, Port: portName}
}

// String renders the ref as "task.port".
func (r Ref) String() string {
	return r.Task + "." + r.Port
}

// ParseRef parses the "task.port" form produced by Ref.String. Task ids may
// contain dots, so the port name is taken after the last one.
func ParseRef(s string) (Ref, error) {
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return Ref{}, fmt.Errorf("invalid port reference %q: expected task.port", s)
	}
	return Ref{Task: s[:idx], Port: s[idx+1:]}, nil
}

// Wire is a wiring directive binding an output port to an input port. Slot
// is the supply position of the producer inside a variadic fan-in and is
// zero for ordinary single-producer wires.
type Wire struct {
	From Ref
	To   Ref
	Slot int
}

// String implements fmt.Stringer.
func (w Wire) String() string {
	return fmt.Sprintf("%s -> %s", w.From, w.To)
}
