package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/triggergrid/internal/coordinator"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/state"
)

// ErrPipelineFailed is returned by Run when at least one stage did not
// succeed.
var ErrPipelineFailed = errors.New("pipeline failed")

// Run executes the pipeline. With ValidateOnly set it only logs the tracks
// and returns a nil Report.
func (a *App) Run(ctx context.Context) (*coordinator.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.ValidateOnly {
		a.logTracks()
		a.logger.Info("✅ Pipeline is valid.")
		return nil, nil
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	exec, err := a.newExecutor()
	if err != nil {
		return nil, err
	}

	sink, closeSinks := a.newSink(ctx)
	defer closeSinks()

	coord, err := coordinator.New(a.topology, exec,
		coordinator.WithSink(sink),
		coordinator.WithStore(a.store),
		coordinator.WithMaxParallel(a.config.MaxParallel),
	)
	if err != nil {
		return nil, err
	}

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	a.logger.Info("🚀 Starting pipeline execution...", "executor", a.config.Executor, "max_parallel", a.config.MaxParallel)
	report, err := coord.Run(ctx)
	a.logReport(report)
	if err != nil {
		return report, fmt.Errorf("pipeline run interrupted: %w", err)
	}
	if !report.Succeeded() {
		return report, fmt.Errorf("%w: %w", ErrPipelineFailed, report.Err())
	}

	a.logger.Info("🏁 Execution finished.", "duration", report.Duration())
	return report, nil
}

// logTracks prints every root-to-leaf chain of stages.
func (a *App) logTracks() {
	for i, chain := range a.topology.Chains() {
		names := make([]string, len(chain))
		for j, s := range chain {
			names[j] = s.Name()
		}
		a.logger.Info("Track.", "index", i+1, "stages", strings.Join(names, " -> "))
	}
}

func (a *App) logReport(report *coordinator.Report) {
	if report == nil {
		return
	}
	for _, s := range report.Stages {
		attrs := []any{"stage", s.Name, "status", s.Status.String(), "runs", len(s.Runs)}
		if s.Reason != "" {
			attrs = append(attrs, "reason", s.Reason)
		}
		if s.Status == state.StageSucceeded {
			a.logger.Info("Stage summary.", attrs...)
		} else {
			a.logger.Warn("Stage summary.", attrs...)
		}
	}
}
