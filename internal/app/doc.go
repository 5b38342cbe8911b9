// Package app contains the core application logic: it loads a workflow
// configuration, opens a session, runs or plans the workflow and writes the
// run report. It is decoupled from any specific entrypoint like a CLI.
package app
