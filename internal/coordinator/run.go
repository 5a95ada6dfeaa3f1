package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/state"
	"github.com/specialistvlad/triggergrid/internal/topology"
)

// execute runs one scenario and always delivers the run to results, even when
// the stage stopped listening.
func (r *execution) execute(ctx context.Context, run *state.RunResult, sc *topology.Scenario, results chan<- *state.RunResult) {
	defer func() { results <- run }()
	ctx, logger := ctxlog.With(ctx, "scenario", sc.ID(), "run_id", run.ID)

	if r.sem != nil {
		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.finishRun(ctx, run, state.Cancelled, err)
			return
		}
		defer r.sem.Release(1)
	}

	if !run.Start(r.now()) {
		logger.Debug("Run was cancelled before it started.")
		return
	}
	r.recordRun(ctx, run, state.Pending, state.Running, nil)

	err := r.safeExecute(ctx, sc)
	switch {
	case err == nil:
		r.finishRun(ctx, run, state.Succeeded, nil)
	case ctx.Err() != nil:
		r.finishRun(ctx, run, state.Cancelled, err)
	default:
		r.finishRun(ctx, run, state.Failed, err)
	}
}

// safeExecute turns an executor panic into a failed run.
func (r *execution) safeExecute(ctx context.Context, sc *topology.Scenario) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("executor panicked: %v", p)
		}
	}()
	return r.exec.Execute(ctx, sc)
}

// finishRun assigns a terminal status unless the run already has one, in
// which case the late outcome is dropped.
func (r *execution) finishRun(ctx context.Context, run *state.RunResult, to state.RunStatus, runErr error) bool {
	from := run.Status()
	if !run.Finish(to, runErr, r.now()) {
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			ctxlog.FromContext(ctx).Debug("Discarding late scenario result.", "scenario", run.Scenario, "status", to, "error", runErr)
		}
		return false
	}
	r.recordRun(ctx, run, from, to, runErr)
	return true
}
