package app

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // hcl files or directories

	// Plan prints the ready batches instead of running the workflow.
	Plan bool
	// ReportPath receives the YAML run report; stdout when empty.
	ReportPath string
	// Workdir is where task bodies write their artifacts. NewConfig makes it
	// absolute.
	Workdir string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one workflow configuration path is required")
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "."
	}
	workdir, err := filepath.Abs(cfg.Workdir)
	if err != nil {
		return nil, fmt.Errorf("resolving workdir %q: %w", cfg.Workdir, err)
	}
	cfg.Workdir = workdir
	return &cfg, nil
}

// ConfigError marks failures caused by the user's configuration rather than
// by the run itself.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string { return e.Err.Error() }

func (e *ConfigError) Unwrap() error { return e.Err }
