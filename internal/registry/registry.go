package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/port"
	"github.com/specialistvlad/sweepgridgo/internal/resource"
)

// Module is the interface that groups of kinds implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Body performs the work of one node. It receives resolved inputs and returns
// output values keyed by output port name.
type Body func(ctx context.Context, inv *Invocation) (map[string]any, error)

// Param is one entry of a kind's parameter schema. Required parameters never
// get a default; optional ones fall back to Default when absent.
type Param struct {
	Name     string
	Required bool
	Default  string
}

// Kind is the static schema of a task kind.
type Kind struct {
	Name   string
	Ports  []port.Spec
	Params []Param
	// Resources is the default profile merged under per-node requests.
	Resources resource.Spec
	Body      Body
}

// Port looks up a port spec by name and direction.
func (k *Kind) Port(name string, dir port.Direction) (port.Spec, bool) {
	for _, p := range k.Ports {
		if p.Name == name && p.Direction == dir {
			return p, true
		}
	}
	return port.Spec{}, false
}

// Param looks up a parameter by name.
func (k *Kind) Param(name string) (Param, bool) {
	for _, p := range k.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Inputs returns the input port specs in declaration order.
func (k *Kind) Inputs() []port.Spec {
	return k.filter(port.In)
}

// Outputs returns the output port specs in declaration order.
func (k *Kind) Outputs() []port.Spec {
	return k.filter(port.Out)
}

func (k *Kind) filter(dir port.Direction) []port.Spec {
	var specs []port.Spec
	for _, p := range k.Ports {
		if p.Direction == dir {
			specs = append(specs, p)
		}
	}
	return specs
}

// Registry holds the registered kinds of a single application instance.
type Registry struct {
	kinds map[string]*Kind
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// Register adds a kind. Registering the same name twice is a programming
// error and panics.
func (r *Registry) Register(k *Kind) {
	if _, exists := r.kinds[k.Name]; exists {
		panic(fmt.Sprintf("task kind '%s' already registered", k.Name))
	}
	r.kinds[k.Name] = k
}

// Lookup returns a registered kind.
func (r *Registry) Lookup(name string) (*Kind, bool) {
	k, ok := r.kinds[name]
	return k, ok
}

// Names returns the registered kind names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetBody replaces the body of a registered kind.
func (r *Registry) SetBody(name string, body Body) error {
	k, ok := r.kinds[name]
	if !ok {
		return fmt.Errorf("cannot set body: task kind '%s' is not registered", name)
	}
	k.Body = body
	return nil
}

// SetResources replaces the default resource profile of a registered kind.
func (r *Registry) SetResources(name string, spec resource.Spec) error {
	k, ok := r.kinds[name]
	if !ok {
		return fmt.Errorf("cannot set resources: task kind '%s' is not registered", name)
	}
	k.Resources = spec
	return nil
}

// Validate checks every kind for duplicate ports or params, a missing body,
// and output ports declared as variadic.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	for _, name := range r.Names() {
		k := r.kinds[name]
		logger.Debug("Validating task kind.", "kind", name, "ports", len(k.Ports), "params", len(k.Params))
		if k.Body == nil {
			errs = append(errs, fmt.Errorf("task kind '%s': no body registered", name))
		}
		seenPorts := make(map[string]struct{})
		for _, p := range k.Ports {
			key := p.Direction.String() + ":" + p.Name
			if _, dup := seenPorts[key]; dup {
				errs = append(errs, fmt.Errorf("task kind '%s': duplicate %s port '%s'", name, p.Direction, p.Name))
			}
			seenPorts[key] = struct{}{}
			if p.Direction == port.Out && (p.Variadic || p.Partial) {
				errs = append(errs, fmt.Errorf("task kind '%s': output port '%s' cannot be variadic", name, p.Name))
			}
		}
		seenParams := make(map[string]struct{})
		for _, p := range k.Params {
			if _, dup := seenParams[p.Name]; dup {
				errs = append(errs, fmt.Errorf("task kind '%s': duplicate parameter '%s'", name, p.Name))
			}
			seenParams[p.Name] = struct{}{}
			if p.Required && p.Default != "" {
				logger.Warn("Required parameter declares a default that will never be used.", "kind", name, "param", p.Name)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed: %w", errors.Join(errs...))
	}
	logger.Debug("Registry validation successful.", "kinds", len(r.kinds))
	return nil
}
