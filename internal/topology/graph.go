package topology

import (
	"fmt"
	"sync"
)

// Graph collects trigger stages in declaration order. Every reference is
// checked against the Registry and the stages added so far, so a Graph only
// ever holds backward predecessor references.
type Graph struct {
	mu       sync.RWMutex
	registry *Registry
	byName   map[string]*TriggerStage
	order    []*TriggerStage
}

// NewGraph creates an empty Graph resolving scenario ids against r.
func NewGraph(r *Registry) *Graph {
	return &Graph{
		registry: r,
		byName:   make(map[string]*TriggerStage),
	}
}

// AddStage appends a stage. It fails with ErrDuplicateStage when the name is
// taken, ErrUnknownScenario when a scenario id is not registered and
// ErrUnknownStage when predecessor is set but was not added before.
func (g *Graph) AddStage(name string, scenarioIDs []string, predecessor string, opts ...StageOption) (*TriggerStage, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: stage name must not be empty", ErrInvalidID)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicateStage, name)
	}
	for _, id := range scenarioIDs {
		if _, err := g.registry.Lookup(id); err != nil {
			return nil, fmt.Errorf("stage '%s': %w", name, err)
		}
	}
	if predecessor != "" {
		if _, ok := g.byName[predecessor]; !ok {
			return nil, fmt.Errorf("%w: stage '%s' references predecessor '%s' which has not been declared", ErrUnknownStage, name, predecessor)
		}
	}

	s := NewTriggerStage(name, scenarioIDs, predecessor, opts...)
	g.byName[name] = s
	g.order = append(g.order, s)
	return s, nil
}

// Topology returns the declared scenarios and stages.
func (g *Graph) Topology() Topology {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stages := make([]*TriggerStage, len(g.order))
	copy(stages, g.order)
	return Topology{
		Scenarios: g.registry.Scenarios(),
		Stages:    stages,
	}
}
