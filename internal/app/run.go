package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/sweepgridgo/internal/ctxlog"
	"github.com/specialistvlad/sweepgridgo/internal/report"
	"github.com/specialistvlad/sweepgridgo/internal/session"
)

const closeTimeout = 10 * time.Second

// Run loads the configuration, then plans or executes the declared workflow.
// Configuration problems are returned as *ConfigError; a run whose sinks did
// not all complete returns the executor's *report.FailureError.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	model, err := a.loader.Load(ctx, a.config.ConfigPaths...)
	if err != nil {
		return &ConfigError{Err: fmt.Errorf("failed to load configuration: %w", err)}
	}
	sess, err := a.factory.NewSession(ctx, model)
	if err != nil {
		return &ConfigError{Err: err}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := sess.Close(closeCtx); err != nil {
			a.logger.Error("Session close failed.", "error", err)
		}
	}()

	if a.config.Plan {
		return a.printPlan(ctx, sess)
	}

	exec, err := sess.GetExecutor()
	if err != nil {
		return err
	}
	a.logger.Info("Starting workflow execution.", "session", sess.ID(), "workflow", model.Workflow.Type)
	runErr := exec.Execute(ctx)
	if rep := exec.Report(); rep != nil {
		if err := a.writeReport(rep); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}
	a.logger.Info("Workflow execution finished.")
	return nil
}

func (a *App) printPlan(ctx context.Context, sess session.Session) error {
	batches, err := sess.Plan(ctx)
	if err != nil {
		return &ConfigError{Err: err}
	}
	for i, batch := range batches {
		fmt.Fprintf(a.outW, "batch %d (%d nodes): %s\n", i+1, len(batch), strings.Join(batch, " "))
	}
	return nil
}

func (a *App) writeReport(rep *report.Report) error {
	var w io.Writer = a.outW
	if a.config.ReportPath != "" {
		f, err := os.Create(a.config.ReportPath)
		if err != nil {
			return fmt.Errorf("creating report file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return rep.WriteYAML(w)
}
