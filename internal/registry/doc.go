// Package registry maps task kind names to their static schema: the ports a
// kind exposes, the parameters it accepts, its default resource profile and
// the opaque body that performs the work.
//
// Kinds are registered once at startup by modules implementing Module, then
// validated. The graph builder consults the registry when it materializes a
// node; backends only ever see the body through a task.
package registry
