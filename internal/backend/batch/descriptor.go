package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
	"github.com/specialistvlad/sweepgridgo/internal/task"
)

const maxJobNameLen = 64

// JobDescriptor is the scheduler-facing form of a resource request.
type JobDescriptor struct {
	Name      string
	Project   string
	Partition string
	Cores     int
	Threads   int
	WallTime  time.Duration
}

// NewDescriptor translates a task's resource request. Batch submissions need
// a positive core count and a wall-time budget.
func NewDescriptor(t *task.Task) (JobDescriptor, error) {
	spec := t.Node.Resources
	var errs []error
	if err := spec.Validate(); err != nil {
		errs = append(errs, err)
	}
	if spec.Cores <= 0 {
		errs = append(errs, errors.New("cores must be set for batch submission"))
	}
	if strings.TrimSpace(spec.Time) == "" {
		errs = append(errs, errors.New("time must be set for batch submission"))
	}
	if len(errs) > 0 {
		return JobDescriptor{}, errors.Join(errs...)
	}
	wall, err := spec.WallTime()
	if err != nil {
		return JobDescriptor{}, err
	}

	name := spec.JobName
	if name == "" {
		name = t.Node.ID
	}
	return JobDescriptor{
		Name:      JobName(name),
		Project:   spec.Project,
		Partition: spec.Partition,
		Cores:     spec.Cores,
		Threads:   spec.ThreadCount(),
		WallTime:  wall,
	}, nil
}

// JobName sanitizes a name into the character set schedulers accept.
func JobName(name string) string {
	s := slug.Make(name)
	if len(s) > maxJobNameLen {
		s = s[:maxJobNameLen]
	}
	return s
}

// Directives renders the descriptor as #SBATCH header lines.
func (d JobDescriptor) Directives() []string {
	lines := []string{fmt.Sprintf("#SBATCH --job-name=%s", d.Name)}
	if d.Project != "" {
		lines = append(lines, fmt.Sprintf("#SBATCH --account=%s", d.Project))
	}
	if d.Partition != "" {
		lines = append(lines, fmt.Sprintf("#SBATCH --partition=%s", d.Partition))
	}
	lines = append(lines,
		fmt.Sprintf("#SBATCH --ntasks=%d", d.Cores),
		fmt.Sprintf("#SBATCH --cpus-per-task=%d", d.Threads),
		fmt.Sprintf("#SBATCH --time=%s", resource.FormatWallTime(d.WallTime)),
	)
	return lines
}
