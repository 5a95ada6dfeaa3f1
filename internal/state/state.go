// Package state defines the execution states of scenario runs and trigger
// stages, and the RunResult cell whose terminal transition happens exactly once.
package state

import (
	"sync/atomic"
	"time"
)

// RunStatus is the state of a single scenario run.
type RunStatus int32

const (
	// Pending indicates the run was created but the executor has not started it.
	Pending RunStatus = iota
	// Running indicates the executor is working on the run.
	Running
	// Succeeded indicates the executor reported success.
	Succeeded
	// Failed indicates the executor reported a failure.
	Failed
	// Cancelled indicates the run was abandoned before it reached a result.
	Cancelled
)

// IsTerminal reports whether no further transition is possible.
func (s RunStatus) IsTerminal() bool {
	return s == Succeeded || s == Failed || s == Cancelled
}

func (s RunStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StageStatus is the state of a trigger stage.
type StageStatus int32

const (
	// StageIdle is the initial state before the coordinator looks at the stage.
	StageIdle StageStatus = iota
	// StageWaiting indicates the stage is blocked on its predecessor.
	StageWaiting
	// StageRunning indicates the stage's scenarios have been fanned out.
	StageRunning
	// StageSucceeded indicates every scenario run succeeded.
	StageSucceeded
	// StageFailed indicates at least one scenario run failed.
	StageFailed
	// StageCancelled indicates the stage never ran or was aborted, usually
	// because its predecessor did not succeed.
	StageCancelled
)

// IsTerminal reports whether no further transition is possible.
func (s StageStatus) IsTerminal() bool {
	return s == StageSucceeded || s == StageFailed || s == StageCancelled
}

func (s StageStatus) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageWaiting:
		return "waiting"
	case StageRunning:
		return "running"
	case StageSucceeded:
		return "succeeded"
	case StageFailed:
		return "failed"
	case StageCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// RunResult tracks one scenario run owned by one stage. Its state is a single
// immutable snapshot swapped atomically, so the first terminal writer decides
// the outcome and every later writer is ignored.
type RunResult struct {
	ID       string
	Stage    string
	Scenario string

	snap atomic.Pointer[snapshot]
}

type snapshot struct {
	status  RunStatus
	err     error
	started time.Time
	ended   time.Time
}

// NewRunResult creates a Pending run result.
func NewRunResult(id, stage, scenario string) *RunResult {
	r := &RunResult{ID: id, Stage: stage, Scenario: scenario}
	r.snap.Store(&snapshot{status: Pending})
	return r
}

// Status returns the current status.
func (r *RunResult) Status() RunStatus {
	return r.snap.Load().status
}

// Start moves a Pending run to Running. It returns false if the run already
// left Pending, for example because it was cancelled before an executor slot
// became available.
func (r *RunResult) Start(at time.Time) bool {
	cur := r.snap.Load()
	if cur.status != Pending {
		return false
	}
	return r.snap.CompareAndSwap(cur, &snapshot{status: Running, started: at})
}

// Finish assigns a terminal status. It returns true only for the call that
// performed the transition.
func (r *RunResult) Finish(status RunStatus, err error, at time.Time) bool {
	if !status.IsTerminal() {
		return false
	}
	for {
		cur := r.snap.Load()
		if cur.status.IsTerminal() {
			return false
		}
		next := &snapshot{status: status, err: err, started: cur.started, ended: at}
		if r.snap.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// Err returns the error recorded with the terminal status, if any.
func (r *RunResult) Err() error {
	return r.snap.Load().err
}

// StartedAt returns when the run entered Running; zero if it never did.
func (r *RunResult) StartedAt() time.Time {
	return r.snap.Load().started
}

// EndedAt returns when the run reached its terminal status; zero otherwise.
func (r *RunResult) EndedAt() time.Time {
	return r.snap.Load().ended
}

// Duration is the time spent Running. Runs that never started report zero.
func (r *RunResult) Duration() time.Duration {
	cur := r.snap.Load()
	if cur.started.IsZero() || cur.ended.IsZero() {
		return 0
	}
	return cur.ended.Sub(cur.started)
}
