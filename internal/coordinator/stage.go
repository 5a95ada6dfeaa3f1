package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/events"
	"github.com/specialistvlad/triggergrid/internal/state"
	"github.com/specialistvlad/triggergrid/internal/statestore"
	"github.com/specialistvlad/triggergrid/internal/topology"
	"golang.org/x/sync/semaphore"
)

// execution is the state of one Run call.
type execution struct {
	*Coordinator
	runSetID string
	stages   map[string]*stageRecord
	sem      *semaphore.Weighted

	// mirrorMu orders run writes to the store and the sink.
	mirrorMu sync.Mutex
}

// stageRecord is owned by the goroutine driving the stage. Other goroutines
// read status at any time and the remaining fields only after done is closed.
type stageRecord struct {
	stage   *topology.TriggerStage
	done    chan struct{}
	status  atomic.Int32
	reason  string
	started time.Time
	ended   time.Time
	runs    []*state.RunResult
}

func (rec *stageRecord) Status() state.StageStatus {
	return state.StageStatus(rec.status.Load())
}

// runStage drives one stage from Idle to a terminal state. The error is
// reserved for broken coordinator invariants; failed and cancelled stages
// are reported through the stage status.
func (r *execution) runStage(ctx context.Context, rec *stageRecord) error {
	defer close(rec.done)
	name := rec.stage.Name()
	ctx, logger := ctxlog.With(ctx, "stage", name)

	if !rec.stage.IsRoot() {
		var pred *stageRecord
		if p, ok := r.topo.PredecessorOf(name); ok {
			pred = r.stages[p.Name()]
		}
		if pred == nil {
			r.transition(ctx, rec, state.StageCancelled, "predecessor is not part of the run")
			return fmt.Errorf("stage '%s': predecessor '%s' is not part of the run", name, rec.stage.Predecessor())
		}
		r.transition(ctx, rec, state.StageWaiting, "waiting for "+pred.stage.Name())

		select {
		case <-pred.done:
		case <-ctx.Done():
			r.transition(ctx, rec, state.StageCancelled, "run cancelled while waiting")
			return nil
		}

		if st := pred.Status(); st != state.StageSucceeded {
			logger.Debug("Predecessor did not succeed, cancelling stage.", "predecessor", pred.stage.Name(), "predecessor_status", st)
			r.transition(ctx, rec, state.StageCancelled, fmt.Sprintf("predecessor '%s' %s", pred.stage.Name(), st))
			return nil
		}
	}

	if ctx.Err() != nil {
		r.transition(ctx, rec, state.StageCancelled, "run cancelled before start")
		return nil
	}

	r.fanOut(ctx, rec)
	if st := rec.Status(); !st.IsTerminal() {
		return fmt.Errorf("stage '%s' stopped in non-terminal status %s", name, st)
	}
	return nil
}

// fanOut launches every scenario of the stage and collects the results
// according to the stage's failure policy.
func (r *execution) fanOut(ctx context.Context, rec *stageRecord) {
	logger := ctxlog.FromContext(ctx)
	name := rec.stage.Name()
	scenarios := r.topo.ScenariosOf(name)

	rec.runs = make([]*state.RunResult, len(scenarios))
	for i, sc := range scenarios {
		rec.runs[i] = state.NewRunResult(uuid.NewString(), name, sc.ID())
		r.recordRun(ctx, rec.runs[i], state.Pending, state.Pending, nil)
	}
	r.transition(ctx, rec, state.StageRunning, "")

	runCtx, cancelRuns := context.WithCancel(ctx)
	defer cancelRuns()

	// Buffered so abandoned runs can always deliver and exit.
	results := make(chan *state.RunResult, len(scenarios))
	for i, sc := range scenarios {
		go r.execute(runCtx, rec.runs[i], sc, results)
	}

	failFast := rec.stage.FailurePolicy() == topology.FailFast
	var firstFailure *state.RunResult
	remaining := len(scenarios)

collect:
	for remaining > 0 {
		select {
		case res := <-results:
			remaining--
			if res.Status() != state.Failed || firstFailure != nil {
				continue
			}
			firstFailure = res
			if failFast {
				logger.Debug("Scenario failed, failing stage fast.", "scenario", res.Scenario, "in_flight", remaining)
				break collect
			}
		case <-ctx.Done():
			r.abandon(ctx, rec, context.Cause(ctx))
			r.transition(ctx, rec, state.StageCancelled, "run cancelled: "+ctx.Err().Error())
			return
		}
	}

	if firstFailure != nil {
		r.abandon(ctx, rec, fmt.Errorf("stage failed: scenario '%s' failed", firstFailure.Scenario))
		r.transition(ctx, rec, state.StageFailed, fmt.Sprintf("scenario '%s' failed: %v", firstFailure.Scenario, firstFailure.Err()))
		return
	}

	for _, run := range rec.runs {
		if run.Status() != state.Succeeded {
			// Only reachable when the run context ended while results raced in.
			r.transition(ctx, rec, state.StageCancelled, fmt.Sprintf("scenario '%s' %s", run.Scenario, run.Status()))
			return
		}
	}
	r.transition(ctx, rec, state.StageSucceeded, "")
}

// abandon marks every run of the stage that has not finished yet as
// Cancelled. Their executors are told through their contexts and whatever
// they report later is discarded.
func (r *execution) abandon(ctx context.Context, rec *stageRecord, cause error) {
	for _, run := range rec.runs {
		r.finishRun(ctx, run, state.Cancelled, cause)
	}
}

// transition moves the stage to a new status and reports it.
func (r *execution) transition(ctx context.Context, rec *stageRecord, to state.StageStatus, reason string) {
	now := r.now()
	from := state.StageStatus(rec.status.Swap(int32(to)))
	rec.reason = reason
	switch {
	case to == state.StageRunning:
		rec.started = now
	case to.IsTerminal():
		rec.ended = now
	}

	if err := r.store.SetStageStatus(ctx, rec.stage.Name(), to); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record stage status.", "error", err)
	}

	e := events.Event{
		RunSetID: r.runSetID,
		Time:     now,
		Kind:     events.KindStage,
		Stage:    rec.stage.Name(),
		StageID:  rec.stage.ID(),
		From:     from.String(),
		To:       to.String(),
		Reason:   reason,
	}
	if to.IsTerminal() && !rec.started.IsZero() {
		e.Duration = rec.ended.Sub(rec.started)
	}
	r.sink.Publish(ctx, e)
}

// recordRun mirrors a run transition to the store and the sink. A transition
// the run has already moved past is not mirrored, so a Running write that
// loses the race against a cancellation never overwrites it.
func (r *execution) recordRun(ctx context.Context, run *state.RunResult, from, to state.RunStatus, runErr error) {
	r.mirrorMu.Lock()
	defer r.mirrorMu.Unlock()
	if run.Status() != to {
		ctxlog.FromContext(ctx).Debug("Skipping stale run transition.", "scenario", run.Scenario, "to", to, "current", run.Status())
		return
	}

	key := statestore.RunKey{Stage: run.Stage, Scenario: run.Scenario}
	if err := r.store.SetRunStatus(ctx, key, to); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record run status.", "error", err)
	}
	if runErr != nil {
		if err := r.store.SetRunError(ctx, key, runErr); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to record run error.", "error", err)
		}
	}
	if to == state.Pending {
		return
	}

	e := events.Event{
		RunSetID: r.runSetID,
		Time:     r.now(),
		Kind:     events.KindRun,
		Stage:    run.Stage,
		StageID:  r.stages[run.Stage].stage.ID(),
		Scenario: run.Scenario,
		RunID:    run.ID,
		From:     from.String(),
		To:       to.String(),
		Duration: run.Duration(),
	}
	if runErr != nil {
		e.Reason = runErr.Error()
	}
	r.sink.Publish(ctx, e)
}
