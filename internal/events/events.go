// Package events carries the state transitions a pipeline run produces to
// whoever wants to observe them: logs, metrics, push notifications, tests.
package events

import (
	"context"
	"time"
)

// Kind tells stage transitions apart from scenario run transitions.
type Kind string

const (
	KindStage Kind = "stage"
	KindRun   Kind = "run"
)

// Event is one state transition. From and To hold the lowercase status names
// of either a stage or a run, depending on Kind.
type Event struct {
	RunSetID string        `json:"run_set_id"`
	Time     time.Time     `json:"time"`
	Kind     Kind          `json:"kind"`
	Stage    string        `json:"stage"`
	StageID  string        `json:"stage_id,omitempty"`
	Scenario string        `json:"scenario,omitempty"`
	RunID    string        `json:"run_id,omitempty"`
	From     string        `json:"from"`
	To       string        `json:"to"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration_ns,omitempty"`
}

// Sink receives events. Publish is called from the goroutine that performed
// the transition and must not block for long.
type Sink interface {
	Publish(ctx context.Context, e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, e Event)

// Publish calls f(ctx, e).
func (f SinkFunc) Publish(ctx context.Context, e Event) { f(ctx, e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(context.Context, Event) {})

type multi []Sink

// Multi returns a Sink that forwards every event to each of sinks in order.
// Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	var m multi
	for _, s := range sinks {
		if s == nil {
			continue
		}
		if inner, ok := s.(multi); ok {
			m = append(m, inner...)
			continue
		}
		m = append(m, s)
	}
	if len(m) == 0 {
		return Discard
	}
	if len(m) == 1 {
		return m[0]
	}
	return m
}

func (m multi) Publish(ctx context.Context, e Event) {
	for _, s := range m {
		s.Publish(ctx, e)
	}
}
