// Package cli turns command-line arguments into an app.Config and maps the
// outcome of a run to a process exit code.
package cli
