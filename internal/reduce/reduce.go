// Package reduce implements the reductions that aggregate sibling branch
// outputs: the arithmetic mean of a fan-in and the selection of its
// extremal value.
package reduce

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/sweepgridgo/internal/port"
)

// EmptyInputError is returned when a reduction receives no values.
type EmptyInputError struct {
	Op string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("%s: no input values", e.Op)
}

// Mode selects which extremum SelectExtremum looks for.
type Mode int

const (
	Min Mode = iota
	Max
)

func (m Mode) String() string {
	if m == Max {
		return "max"
	}
	return "min"
}

// Average returns the arithmetic mean of values.
func Average(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, &EmptyInputError{Op: "average"}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), nil
}

// SelectExtremum returns the metric holding the smallest (Min) or largest
// (Max) value. On ties the first one in supply order wins.
func SelectExtremum(values []port.Metric, mode Mode) (port.Metric, error) {
	if len(values) == 0 {
		return port.Metric{}, &EmptyInputError{Op: "select " + mode.String()}
	}
	best := values[0]
	for _, v := range values[1:] {
		if (mode == Min && v.Value < best.Value) || (mode == Max && v.Value > best.Value) {
			best = v
		}
	}
	return best, nil
}

// Metrics converts published port values to metrics.
func Metrics(values []any) ([]port.Metric, error) {
	out := make([]port.Metric, 0, len(values))
	var errs []error
	for i, v := range values {
		m, err := port.AsMetric(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("value %d: %w", i, err))
			continue
		}
		out = append(out, m)
	}
	return out, errors.Join(errs...)
}
