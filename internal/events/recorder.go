package events

import (
	"context"
	"sync"
)

// Recorder keeps every event it receives in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far, in arrival order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// StageStatuses returns the sequence of statuses the named stage moved to.
func (r *Recorder) StageStatuses(stage string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == KindStage && e.Stage == stage {
			out = append(out, e.To)
		}
	}
	return out
}

// RunStatuses returns the sequence of statuses the run of scenario within
// stage moved to.
func (r *Recorder) RunStatuses(stage, scenario string) []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == KindRun && e.Stage == stage && e.Scenario == scenario {
			out = append(out, e.To)
		}
	}
	return out
}
