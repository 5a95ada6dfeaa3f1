package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/specialistvlad/triggergrid/internal/topology"
)

// Declarations applies templates, resolves parameter references and converts
// the model into the inputs of topology.Build. Every problem found is
// reported, joined into one error.
func (m *Model) Declarations() ([]topology.ScenarioSpec, []topology.StageSpec, error) {
	var errs []error

	scenarios := make([]topology.ScenarioSpec, 0, len(m.Scenarios))
	for _, sc := range m.Scenarios {
		spec, err := m.resolveScenario(sc)
		if err != nil {
			errs = append(errs, fmt.Errorf("scenario '%s' (%s): %w", sc.ID, sc.Source, err))
			continue
		}
		scenarios = append(scenarios, spec)
	}

	stages := make([]topology.StageSpec, 0, len(m.Triggers))
	for _, tr := range m.Triggers {
		policy, err := topology.ParseFailurePolicy(tr.FailurePolicy)
		if err != nil {
			errs = append(errs, fmt.Errorf("trigger '%s' (%s): %w", tr.Name, tr.Source, err))
			continue
		}
		stages = append(stages, topology.StageSpec{
			Name:          tr.Name,
			Scenarios:     slices.Clone(tr.Scenarios),
			Predecessor:   tr.Predecessor,
			FailurePolicy: policy,
		})
	}

	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return scenarios, stages, nil
}

func (m *Model) resolveScenario(sc *Scenario) (topology.ScenarioSpec, error) {
	cfg := make(map[string]string)
	var reqs []*Requirement
	for _, name := range sc.Templates {
		t, ok := m.Templates[name]
		if !ok {
			return topology.ScenarioSpec{}, fmt.Errorf("unknown template '%s'", name)
		}
		maps.Copy(cfg, t.Config)
		reqs = append(reqs, t.Requirements...)
	}
	maps.Copy(cfg, sc.Config)
	reqs = append(reqs, sc.Requirements...)

	// A scenario's own configuration shadows project parameters.
	lookup := func(name string) (string, bool) {
		if v, ok := cfg[name]; ok {
			return v, true
		}
		v, ok := m.Params[name]
		return v, ok
	}

	resolved := make(map[string]string, len(cfg))
	for k, v := range cfg {
		out, err := Expand(v, lookup)
		if err != nil {
			return topology.ScenarioSpec{}, fmt.Errorf("config '%s': %w", k, err)
		}
		resolved[k] = out
	}

	requirements := make([]topology.Requirement, 0, len(reqs))
	for _, r := range reqs {
		cond, err := topology.ParseCondition(r.Condition)
		if err != nil {
			return topology.ScenarioSpec{}, err
		}
		value, err := Expand(r.Value, lookup)
		if err != nil {
			return topology.ScenarioSpec{}, fmt.Errorf("requirement '%s': %w", r.Property, err)
		}
		requirements = append(requirements, topology.Requirement{Property: r.Property, Condition: cond, Value: value})
	}

	return topology.ScenarioSpec{ID: sc.ID, Config: resolved, Requirements: requirements}, nil
}
