// Package testutil holds shared helpers for tests that drive pipelines: a
// scripted executor that records what ran and when, and shorthand for
// building topologies.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/triggergrid/internal/topology"
)

// Script is the behaviour of one scenario under a ScriptedExecutor.
type Script func(ctx context.Context) error

// ExecutionRecord holds the start and end times of one scenario execution.
type ExecutionRecord struct {
	Scenario string
	Start    time.Time
	End      time.Time
}

// ScriptedExecutor runs a per-scenario Script and records which scenarios were
// started. Scenarios without a script succeed immediately. It satisfies
// coordinator.Executor.
type ScriptedExecutor struct {
	mu      sync.Mutex
	scripts map[string]Script
	started []string
	records []ExecutionRecord

	inFlight atomic.Int32
	peak     atomic.Int32
}

// NewScripted creates a ScriptedExecutor. scripts may be nil.
func NewScripted(scripts map[string]Script) *ScriptedExecutor {
	if scripts == nil {
		scripts = make(map[string]Script)
	}
	return &ScriptedExecutor{scripts: scripts}
}

// Execute runs the script registered for the scenario.
func (e *ScriptedExecutor) Execute(ctx context.Context, s *topology.Scenario) error {
	e.mu.Lock()
	e.started = append(e.started, s.ID())
	script := e.scripts[s.ID()]
	e.mu.Unlock()

	n := e.inFlight.Add(1)
	for {
		p := e.peak.Load()
		if n <= p || e.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer e.inFlight.Add(-1)

	start := time.Now()
	var err error
	if script != nil {
		err = script(ctx)
	}

	e.mu.Lock()
	e.records = append(e.records, ExecutionRecord{Scenario: s.ID(), Start: start, End: time.Now()})
	e.mu.Unlock()
	return err
}

// Started returns the scenario ids in the order they were started. A
// scenario referenced by several stages appears once per run.
func (e *ScriptedExecutor) Started() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.started)
}

// Records returns the finished executions in completion order.
func (e *ScriptedExecutor) Records() []ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.records)
}

// PeakConcurrency is the largest number of executions seen in flight at once.
func (e *ScriptedExecutor) PeakConcurrency() int {
	return int(e.peak.Load())
}

// Fail returns a script that fails with msg.
func Fail(msg string) Script {
	return func(context.Context) error { return errors.New(msg) }
}

// Sleep returns a script that succeeds after d, or returns the context error
// if cancelled first.
func Sleep(d time.Duration) Script {
	return func(ctx context.Context) error {
		select {
		case <-time.After(d):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// BlockUntilCancelled returns a script that waits for its context to end and
// counts how many times that happened.
func BlockUntilCancelled(cancelled *atomic.Int32) Script {
	return func(ctx context.Context) error {
		<-ctx.Done()
		cancelled.Add(1)
		return ctx.Err()
	}
}
