package config

import (
	"fmt"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/workflow"
)

// WorkflowType names one of the declarable workflows.
type WorkflowType string

const (
	CrossValidate WorkflowType = "crossval"
	Train         WorkflowType = "train"
)

// ParseWorkflowType validates a workflow block label.
func ParseWorkflowType(s string) (WorkflowType, error) {
	switch t := WorkflowType(s); t {
	case CrossValidate, Train:
		return t, nil
	default:
		return "", fmt.Errorf("workflow %q is none of crossval, train", s)
	}
}

// Model is the unified representation of one run's configuration.
type Model struct {
	Workflow Workflow
	Backend  Backend
	// Resources override the default profile of a kind, keyed by kind name.
	Resources map[string]resource.Spec
	// Commands are shell templates keyed by kind name.
	Commands map[string]string
	// Files lists the configuration files that were read.
	Files []string
}

// Workflow holds the parameters of the declared workflow. Only the field
// matching Type is meaningful.
type Workflow struct {
	Type          WorkflowType
	CrossValidate workflow.CrossValidateParams
	Train         workflow.TrainParams
}

// Placement returns the shared placement of the declared workflow.
func (w *Workflow) Placement() *workflow.Placement {
	if w.Type == Train {
		return &w.Train.Placement
	}
	return &w.CrossValidate.Placement
}

// RunMode returns the run mode the workflow asks for, local by default.
func (w *Workflow) RunMode() resource.RunMode {
	if m := w.Placement().RunMode; m != "" {
		return m
	}
	return resource.RunModeLocal
}

// Backend tunes the execution backends. Zero values select defaults.
type Backend struct {
	// Threads is the local thread budget.
	Threads int
	// Ensemble is the number of ranks of the MPI pool.
	Ensemble int
	// MaxJobs bounds concurrently running batch jobs.
	MaxJobs int
	// QueryRetries and QueryBackoff tune batch status polling.
	QueryRetries uint64
	QueryBackoff time.Duration
	PollInterval time.Duration
}
