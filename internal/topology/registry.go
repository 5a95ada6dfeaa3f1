package topology

import (
	"fmt"
	"sync"
)

// Registry holds the scenarios of one topology build. It is written while the
// declarations are processed and only read afterwards.
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]*Scenario
	order     []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{scenarios: make(map[string]*Scenario)}
}

// Register adds a new scenario. It fails with ErrDuplicateID if the id is
// taken and with ErrInvalidID if the id is empty.
func (r *Registry) Register(id string, config map[string]string, requirements []Requirement) (*Scenario, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: scenario id must not be empty", ErrInvalidID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scenarios[id]; ok {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicateID, id)
	}
	s := NewScenario(id, config, requirements)
	r.scenarios[id] = s
	r.order = append(r.order, id)
	return s, nil
}

// Lookup returns the scenario registered under id, or ErrUnknownScenario.
func (r *Registry) Lookup(id string) (*Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownScenario, id)
	}
	return s, nil
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Scenarios returns the registered scenarios in registration order.
func (r *Registry) Scenarios() []*Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.scenarios[id])
	}
	return out
}
