package inmemorystore

import (
	"context"
	"sync"

	"github.com/specialistvlad/triggergrid/internal/state"
	"github.com/specialistvlad/triggergrid/internal/statestore"
)

// Store is an in-memory implementation of statestore.Store using sync.Map
// for fine-grained concurrent access without global lock contention.
//
// The store maintains three independent sync.Maps:
//   - stages: stage name to state.StageStatus
//   - runs: statestore.RunKey to state.RunStatus
//   - errors: statestore.RunKey to the error of a failed run
type Store struct {
	stages sync.Map
	runs   sync.Map
	errors sync.Map
}

// New creates a new, empty in-memory state store.
func New() *Store {
	return &Store{}
}

var _ statestore.Store = (*Store)(nil)

// SetStageStatus records the status of a stage.
func (s *Store) SetStageStatus(ctx context.Context, stage string, status state.StageStatus) error {
	s.stages.Store(stage, status)
	return nil
}

// GetStageStatus returns the status of a stage, defaulting to StageIdle.
func (s *Store) GetStageStatus(ctx context.Context, stage string) (state.StageStatus, error) {
	v, ok := s.stages.Load(stage)
	if !ok {
		return state.StageIdle, nil
	}
	return v.(state.StageStatus), nil
}

// SetRunStatus records the status of a scenario run.
func (s *Store) SetRunStatus(ctx context.Context, key statestore.RunKey, status state.RunStatus) error {
	s.runs.Store(key, status)
	return nil
}

// GetRunStatus returns the status of a scenario run, defaulting to Pending.
func (s *Store) GetRunStatus(ctx context.Context, key statestore.RunKey) (state.RunStatus, error) {
	v, ok := s.runs.Load(key)
	if !ok {
		return state.Pending, nil
	}
	return v.(state.RunStatus), nil
}

// SetRunError records the failure of a scenario run.
func (s *Store) SetRunError(ctx context.Context, key statestore.RunKey, runErr error) error {
	s.errors.Store(key, runErr)
	return nil
}

// GetRunError returns the recorded failure of a scenario run.
func (s *Store) GetRunError(ctx context.Context, key statestore.RunKey) (error, error) {
	v, ok := s.errors.Load(key)
	if !ok {
		return nil, nil // No failure recorded.
	}
	return v.(error), nil
}

// Snapshot copies every recorded status. Entries written while the copy is
// taken may or may not be included.
func (s *Store) Snapshot(ctx context.Context) (statestore.Snapshot, error) {
	snap := statestore.Snapshot{
		Stages: make(map[string]string),
		Runs:   make(map[string]string),
		Errors: make(map[string]string),
	}
	s.stages.Range(func(k, v any) bool {
		snap.Stages[k.(string)] = v.(state.StageStatus).String()
		return true
	})
	s.runs.Range(func(k, v any) bool {
		snap.Runs[k.(statestore.RunKey).String()] = v.(state.RunStatus).String()
		return true
	})
	s.errors.Range(func(k, v any) bool {
		if err, ok := v.(error); ok && err != nil {
			snap.Errors[k.(statestore.RunKey).String()] = err.Error()
		}
		return true
	})
	return snap, nil
}

// Reset forgets every recorded status.
func (s *Store) Reset(ctx context.Context) error {
	s.stages.Clear()
	s.runs.Clear()
	s.errors.Clear()
	return nil
}
