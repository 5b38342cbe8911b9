package port

import "fmt"

// Artifact is a reference to data produced on disk (or in an object store)
// by a task. Only the location travels through the graph.
type Artifact struct {
	Path string
}

// String implements fmt.Stringer.
func (a Artifact) String() string {
	return a.Path
}

// Metric is a scalar measurement keyed by the hyperparameter value (or any
// other label) it was measured for.
type Metric struct {
	Key   string
	Value float64
}

// String implements fmt.Stringer.
func (m Metric) String() string {
	return fmt.Sprintf("%s=%g", m.Key, m.Value)
}

// AsMetric extracts a Metric from a published port value.
func AsMetric(v any) (Metric, error) {
	switch m := v.(type) {
	case Metric:
		return m, nil
	case *Metric:
		if m == nil {
			return Metric{}, fmt.Errorf("nil metric")
		}
		return *m, nil
	case float64:
		return Metric{Value: m}, nil
	default:
		return Metric{}, fmt.Errorf("value of type %T is not a scalar metric", v)
	}
}
