// Package config defines the format-agnostic model of a workflow file: which
// workflow to declare and with which parameters, per-kind resource
// overrides, backend tuning and shell command templates.
//
// The `config.Model` is the single input of the session layer. Concrete
// loaders, such as the HCL one in `hclconfig`, live in separate packages.
package config
