// Package statestore defines the interface for recording and querying the
// mutable execution state of a pipeline run: the status of every trigger
// stage and of every scenario run a stage owns.
//
// # Why a State Store Exists
//
// The coordinator keeps the authoritative state in memory (RunResult cells and
// per-stage channels). The store is a mirror of that state for observers that
// must not touch coordinator internals, such as the /status endpoint or a test
// asserting on intermediate states.
//
// # Lifecycle
//
//  1. **Created** once per process by the application (ephemeral).
//  2. **Written** by the coordinator on every stage and run transition.
//  3. **Queried** concurrently by observers while the run is in flight.
//
// Writes for one key always come from a single goroutine (the stage that owns
// it) but reads may happen from anywhere.
package statestore

import (
	"context"

	"github.com/specialistvlad/triggergrid/internal/state"
)

// RunKey identifies one scenario run: a scenario executed on behalf of a stage.
// The same scenario referenced by two stages gives two independent runs.
type RunKey struct {
	Stage    string
	Scenario string
}

func (k RunKey) String() string {
	return k.Stage + "/" + k.Scenario
}

// Snapshot is a point-in-time copy of every recorded status, keyed by stage
// name and RunKey.String().
type Snapshot struct {
	Stages map[string]string `json:"stages"`
	Runs   map[string]string `json:"runs"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Store records stage and run statuses.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use: stages are driven by
// separate goroutines and observers read while they write.
type Store interface {
	// SetStageStatus records the current status of a stage.
	SetStageStatus(ctx context.Context, stage string, status state.StageStatus) error

	// GetStageStatus returns the status of a stage, or StageIdle if nothing
	// was recorded yet.
	GetStageStatus(ctx context.Context, stage string) (state.StageStatus, error)

	// SetRunStatus records the current status of a scenario run.
	SetRunStatus(ctx context.Context, key RunKey, status state.RunStatus) error

	// GetRunStatus returns the status of a scenario run, or Pending if nothing
	// was recorded yet.
	GetRunStatus(ctx context.Context, key RunKey) (state.RunStatus, error)

	// SetRunError records why a scenario run failed.
	SetRunError(ctx context.Context, key RunKey, runErr error) error

	// GetRunError returns the recorded failure, or nil.
	GetRunError(ctx context.Context, key RunKey) (error, error)

	// Snapshot copies every recorded status.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Reset forgets everything; called before a new run starts.
	Reset(ctx context.Context) error
}
