package topology

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate checks a declared topology and returns its validated form. It
// reports every problem it finds, joined with errors.Join; each one wraps one
// of the package's sentinel errors. Validate has no side effects, so running
// it on the Topology() of a ValidatedTopology yields an equal result.
func Validate(t Topology) (*ValidatedTopology, error) {
	var errs []error

	scenarios := make(map[string]*Scenario, len(t.Scenarios))
	scenarioOrder := make([]*Scenario, 0, len(t.Scenarios))
	for i, s := range t.Scenarios {
		switch {
		case s == nil || s.id == "":
			errs = append(errs, fmt.Errorf("%w: scenario #%d has no id", ErrInvalidID, i))
			continue
		case scenarios[s.id] != nil:
			errs = append(errs, fmt.Errorf("%w: '%s'", ErrDuplicateID, s.id))
			continue
		}
		scenarios[s.id] = s
		scenarioOrder = append(scenarioOrder, s)
	}

	stageIndex := make(map[string]int, len(t.Stages))
	derivedIDs := make(map[string]string, len(t.Stages))
	stages := make([]*TriggerStage, 0, len(t.Stages))
	for i, s := range t.Stages {
		if s == nil || s.name == "" {
			errs = append(errs, fmt.Errorf("%w: stage #%d has no name", ErrInvalidID, i))
			continue
		}
		if _, ok := stageIndex[s.name]; ok {
			errs = append(errs, fmt.Errorf("%w: '%s'", ErrDuplicateStage, s.name))
			continue
		}
		if other, ok := derivedIDs[s.ID()]; ok {
			errs = append(errs, fmt.Errorf("%w: '%s' and '%s' both map to id '%s'", ErrDuplicateStage, other, s.name, s.ID()))
			continue
		}
		stageIndex[s.name] = len(stages)
		derivedIDs[s.ID()] = s.name
		stages = append(stages, s)
	}

	for _, s := range stages {
		if len(s.scenarios) == 0 {
			errs = append(errs, fmt.Errorf("%w: stage '%s' has no scenarios", ErrEmptyStage, s.name))
		}
		for _, id := range s.scenarios {
			if _, ok := scenarios[id]; !ok {
				errs = append(errs, fmt.Errorf("%w: stage '%s' references '%s'", ErrUnknownScenario, s.name, id))
			}
		}
	}

	inCycle := make(map[string]bool)
	for _, cycle := range findCycles(stages, stageIndex) {
		for _, name := range cycle {
			inCycle[name] = true
		}
		errs = append(errs, fmt.Errorf("%w: predecessor chain %s", ErrCycleDetected, strings.Join(append(cycle, cycle[0]), " -> ")))
	}

	for i, s := range stages {
		if s.IsRoot() || inCycle[s.name] {
			continue
		}
		j, ok := stageIndex[s.predecessor]
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("%w: stage '%s' references predecessor '%s' which does not exist", ErrUnknownStage, s.name, s.predecessor))
		case j >= i:
			errs = append(errs, fmt.Errorf("%w: stage '%s' references predecessor '%s' which is declared after it", ErrUnknownStage, s.name, s.predecessor))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	successors := make(map[string][]string)
	for _, s := range stages {
		if !s.IsRoot() {
			successors[s.predecessor] = append(successors[s.predecessor], s.name)
		}
	}

	return &ValidatedTopology{
		scenarios:     scenarios,
		scenarioOrder: scenarioOrder,
		stages:        stages,
		stageIndex:    stageIndex,
		successors:    successors,
	}, nil
}

// findCycles walks every predecessor chain once and returns each loop it
// finds, listed from the first stage of the loop that was reached.
func findCycles(stages []*TriggerStage, index map[string]int) [][]string {
	const (
		unvisited = iota
		visiting
		done
	)
	color := make(map[string]int, len(stages))
	var cycles [][]string

	for _, start := range stages {
		if color[start.name] != unvisited {
			continue
		}
		var path []string
		cur := start.name
		for {
			if color[cur] == done {
				break
			}
			if color[cur] == visiting {
				at := slices.Index(path, cur)
				cycles = append(cycles, slices.Clone(path[at:]))
				break
			}
			color[cur] = visiting
			path = append(path, cur)

			next := stages[index[cur]].predecessor
			if _, ok := index[next]; next == "" || !ok {
				break
			}
			cur = next
		}
		for _, name := range path {
			color[name] = done
		}
	}
	return cycles
}
