// Package resource defines the execution resource request attached to every
// task node. The graph builder treats it as opaque; only execution backends
// read it.
package resource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RunMode selects the execution backend family.
type RunMode string

const (
	RunModeLocal RunMode = "local"
	RunModeHPC   RunMode = "hpc"
	RunModeMPI   RunMode = "mpi"
)

// ParseRunMode validates a run-mode selector.
func ParseRunMode(s string) (RunMode, error) {
	switch m := RunMode(strings.ToLower(strings.TrimSpace(s))); m {
	case RunModeLocal, RunModeHPC, RunModeMPI:
		return m, nil
	default:
		return "", fmt.Errorf("runmode %q is none of local, hpc, nor mpi", s)
	}
}

// Spec is a backend-specific resource request. Field keys are the ones the
// batch scheduler collaborator expects: runmode, project, partition, cores,
// time, jobname, threads.
type Spec struct {
	RunMode   RunMode `hcl:"runmode,optional" yaml:"runmode"`
	Project   string  `hcl:"project,optional" yaml:"project,omitempty"`
	Partition string  `hcl:"partition,optional" yaml:"partition,omitempty"`
	Cores     int     `hcl:"cores,optional" yaml:"cores,omitempty"`
	Time      string  `hcl:"time,optional" yaml:"time,omitempty"`
	JobName   string  `hcl:"jobname,optional" yaml:"jobname,omitempty"`
	Threads   int     `hcl:"threads,optional" yaml:"threads,omitempty"`
}

// Fields renders the spec with the bit-exact keys of the batch collaborator.
// Zero values are omitted.
func (s Spec) Fields() map[string]string {
	out := map[string]string{}
	if s.RunMode != "" {
		out["runmode"] = string(s.RunMode)
	}
	if s.Project != "" {
		out["project"] = s.Project
	}
	if s.Partition != "" {
		out["partition"] = s.Partition
	}
	if s.Cores > 0 {
		out["cores"] = strconv.Itoa(s.Cores)
	}
	if s.Time != "" {
		out["time"] = s.Time
	}
	if s.JobName != "" {
		out["jobname"] = s.JobName
	}
	if s.Threads > 0 {
		out["threads"] = strconv.Itoa(s.Threads)
	}
	return out
}

// Merge returns s with every zero field filled from fallback.
func (s Spec) Merge(fallback Spec) Spec {
	if s.RunMode == "" {
		s.RunMode = fallback.RunMode
	}
	if s.Project == "" {
		s.Project = fallback.Project
	}
	if s.Partition == "" {
		s.Partition = fallback.Partition
	}
	if s.Cores == 0 {
		s.Cores = fallback.Cores
	}
	if s.Time == "" {
		s.Time = fallback.Time
	}
	if s.JobName == "" {
		s.JobName = fallback.JobName
	}
	if s.Threads == 0 {
		s.Threads = fallback.Threads
	}
	return s
}

// ThreadCount returns the requested thread count, defaulting to one.
func (s Spec) ThreadCount() int {
	if s.Threads <= 0 {
		return 1
	}
	return s.Threads
}

// WallTime parses Time. An empty Time means no limit and returns zero.
func (s Spec) WallTime() (time.Duration, error) {
	if strings.TrimSpace(s.Time) == "" {
		return 0, nil
	}
	return ParseWallTime(s.Time)
}

// Validate checks the fields a batch submission needs. Local execution only
// ever looks at Threads, so callers decide which checks apply.
func (s Spec) Validate() error {
	var errs []error
	if s.RunMode != "" {
		if _, err := ParseRunMode(string(s.RunMode)); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Cores < 0 {
		errs = append(errs, fmt.Errorf("cores must be a positive integer, got %d", s.Cores))
	}
	if s.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must be a positive integer, got %d", s.Threads))
	}
	if _, err := s.WallTime(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
