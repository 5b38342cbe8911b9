package node

import "fmt"

// Status is the execution status of a node.
type Status int32

const (
	// StatusPending indicates the node is waiting for its inputs.
	StatusPending Status = iota
	// StatusReady indicates every input is resolved and the node may be submitted.
	StatusReady
	// StatusRunning indicates the node has been submitted to a backend.
	StatusRunning
	// StatusCompleted indicates the node finished and published its outputs.
	StatusCompleted
	// StatusFailed indicates the node was submitted and did not complete.
	StatusFailed
	// StatusSkipped indicates the node never executed because an upstream
	// dependency failed or the run was cancelled before submission.
	StatusSkipped
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReady:
		return "Ready"
	case StatusRunning:
		return "Running"
	case StatusCompleted:
		return "Completed"
	case StatusFailed:
		return "Failed"
	case StatusSkipped:
		return "Skipped"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// MarshalText lets reports and logs render the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
