// Package sweep expands parameter axes into the ordered Cartesian product of
// their values. Each combination carries a deterministic id suffix built
// from its (axis, value) pairs, so rebuilding a graph from the same axes
// yields identical node ids.
package sweep

import (
	"fmt"
	"iter"
	"math/big"
	"strconv"
	"strings"

	"github.com/specialistvlad/sweepgridgo/internal/nodeid"
)

// ConfigurationError reports an axis set that cannot be expanded.
type ConfigurationError struct {
	Axis   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Axis == "" {
		return "sweep configuration: " + e.Reason
	}
	return fmt.Sprintf("sweep configuration: axis '%s': %s", e.Axis, e.Reason)
}

// Axis is a named, ordered sequence of parameter values.
type Axis struct {
	Name      string
	values    []string
	unbounded bool
}

// Values builds a finite axis over explicit values.
func Values(name string, values ...string) Axis {
	return Axis{Name: name, values: append([]string(nil), values...)}
}

// Ints builds the axis from, from+1, ..., to-1.
func Ints(name string, from, to int) Axis {
	a := Axis{Name: name}
	for i := from; i < to; i++ {
		a.values = append(a.values, strconv.Itoa(i))
	}
	return a
}

// Powers builds the axis base^from, ..., base^to (both ends included).
func Powers(name string, base, from, to int) Axis {
	a := Axis{Name: name}
	b := big.NewInt(int64(base))
	for e := from; e <= to; e++ {
		a.values = append(a.values, new(big.Int).Exp(b, big.NewInt(int64(e)), nil).String())
	}
	return a
}

// Unbounded declares an axis without an end. Expanding it always fails.
func Unbounded(name string) Axis {
	return Axis{Name: name, unbounded: true}
}

// Len returns the number of values on the axis.
func (a Axis) Len() int {
	return len(a.values)
}

// Values returns a copy of the axis values.
func (a Axis) Values() []string {
	return append([]string(nil), a.values...)
}

// Expansion is the validated product of a set of axes. It can be iterated
// any number of times.
type Expansion struct {
	axes []Axis
}

// Expand validates the axes. The first axis varies slowest.
func Expand(axes ...Axis) (*Expansion, error) {
	seen := make(map[string]struct{}, len(axes))
	for _, a := range axes {
		if a.Name == "" {
			return nil, &ConfigurationError{Reason: "axis name cannot be empty"}
		}
		if a.unbounded {
			return nil, &ConfigurationError{Axis: a.Name, Reason: "axis is unbounded"}
		}
		if _, dup := seen[a.Name]; dup {
			return nil, &ConfigurationError{Axis: a.Name, Reason: "axis declared twice"}
		}
		seen[a.Name] = struct{}{}
		if err := checkPart(a.Name); err != nil {
			return nil, &ConfigurationError{Axis: a.Name, Reason: "name " + err.Error()}
		}
		values := make(map[string]struct{}, len(a.values))
		for _, v := range a.values {
			if err := checkPart(v); err != nil {
				return nil, &ConfigurationError{Axis: a.Name, Reason: "value " + err.Error()}
			}
			if _, dup := values[v]; dup {
				return nil, &ConfigurationError{Axis: a.Name, Reason: fmt.Sprintf("value '%s' listed twice", v)}
			}
			values[v] = struct{}{}
		}
	}
	return &Expansion{axes: append([]Axis(nil), axes...)}, nil
}

// checkPart rejects names and values that would make a rendered suffix
// ambiguous or unusable as an identifier.
func checkPart(s string) error {
	if strings.Contains(s, "_") {
		return fmt.Errorf("'%s' contains the '_' separator", s)
	}
	return nodeid.Validate(s)
}

// Len returns the number of combinations. An axis without values makes the
// product empty.
func (e *Expansion) Len() int {
	n := 1
	for _, a := range e.axes {
		n *= len(a.values)
	}
	return n
}

// All yields every combination in lexicographic axis order. Combinations are
// computed on demand.
func (e *Expansion) All() iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		if e.Len() == 0 {
			return
		}
		idx := make([]int, len(e.axes))
		for n := 0; ; n++ {
			c := Combination{Index: n, pairs: make([]nodeid.Qualifier, len(e.axes))}
			for i, a := range e.axes {
				c.pairs[i] = nodeid.Q(a.Name, a.values[idx[i]])
			}
			if !yield(c) {
				return
			}
			// Advance the odometer, last axis fastest.
			i := len(idx) - 1
			for ; i >= 0; i-- {
				idx[i]++
				if idx[i] < len(e.axes[i].values) {
					break
				}
				idx[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// Combination is one tuple of the product.
type Combination struct {
	// Index is the position of the combination in iteration order.
	Index int
	pairs []nodeid.Qualifier
}

// Get returns the value of an axis in this combination.
func (c Combination) Get(name string) (string, bool) {
	for _, q := range c.pairs {
		if q.Name == name {
			return q.Value, true
		}
	}
	return "", false
}

// Qualifiers returns the (axis, value) pairs in axis order.
func (c Combination) Qualifiers() []nodeid.Qualifier {
	return append([]nodeid.Qualifier(nil), c.pairs...)
}

// Suffix renders the id suffix, e.g. "fold_3_cost_1000000".
func (c Combination) Suffix() string {
	return nodeid.Suffix(c.pairs...)
}

// ID qualifies a base name with this combination.
func (c Combination) ID(base string) string {
	return nodeid.New(base, c.pairs...).String()
}

// Params returns the combination as a parameter map.
func (c Combination) Params() map[string]string {
	params := make(map[string]string, len(c.pairs))
	for _, q := range c.pairs {
		params[q.Name] = q.Value
	}
	return params
}
