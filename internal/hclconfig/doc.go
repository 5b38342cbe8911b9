// Package hclconfig loads workflow files written in HCL into a config.Model.
//
// A configuration is one or more .hcl files, or directories of them, holding
// exactly one `workflow "<crossval|train>"` block plus optional `resources`,
// `backend` and `command` blocks. Attribute expressions are evaluated with an
// `env` map of the process environment and a set of cty standard library
// functions (range, pow, format, formatlist, ...).
package hclconfig
