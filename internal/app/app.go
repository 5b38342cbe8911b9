package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/sweepgridgo/internal/config"
	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/localsession"
	"github.com/specialistvlad/sweepgridgo/internal/metrics"
	"github.com/specialistvlad/sweepgridgo/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     config.Loader
	factory    session.SessionFactory
	metrics    *metrics.Metrics
	httpServer *http.Server
}

// Option replaces one of the App's collaborators.
type Option func(*App)

// WithSessionFactory overrides the default local session factory.
func WithSessionFactory(f session.SessionFactory) Option {
	return func(a *App) { a.factory = f }
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger and metrics registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	m := metrics.New()
	a := &App{
		ctx:     ctxlog.WithLogger(context.Background(), logger),
		outW:    outW,
		logger:  logger,
		config:  cfg,
		loader:  loader,
		metrics: m,
		factory: &localsession.SessionFactory{Workdir: cfg.Workdir, Metrics: m},
	}
	for _, opt := range opts {
		opt(a)
	}
	logger.Debug("Application configured.", "config_paths", cfg.ConfigPaths, "plan", cfg.Plan)
	return a
}

// Metrics returns the application's metrics. This is primarily for testing.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}
