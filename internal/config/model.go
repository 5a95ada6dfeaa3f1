package config

import (
	"fmt"
	"maps"
)

// Model is the unified, format-agnostic representation of a pipeline
// definition, possibly assembled from several files.
type Model struct {
	Params    map[string]string
	Templates map[string]*Template
	Scenarios []*Scenario
	Triggers  []*Trigger
}

// Template holds configuration and requirements shared by many scenarios.
type Template struct {
	Name         string
	Config       map[string]string
	Requirements []*Requirement
	Source       string
}

// Scenario is the format-agnostic representation of a `scenario` block.
type Scenario struct {
	ID           string
	Templates    []string
	Config       map[string]string
	Requirements []*Requirement
	Source       string
}

// Requirement is the format-agnostic representation of a `requirement` block.
type Requirement struct {
	Property  string
	Condition string
	Value     string
}

// Trigger is the format-agnostic representation of a `trigger` block.
type Trigger struct {
	Name          string
	Scenarios     []string
	Predecessor   string
	FailurePolicy string
	Source        string
}

// NewModel returns an empty Model.
func NewModel() *Model {
	return &Model{
		Params:    make(map[string]string),
		Templates: make(map[string]*Template),
	}
}

// Merge appends other to m. Scenarios and triggers keep their order, files
// merged later come after. A parameter or template defined twice is an error.
func (m *Model) Merge(other *Model) error {
	if other == nil {
		return nil
	}
	for k, v := range other.Params {
		if old, ok := m.Params[k]; ok && old != v {
			return fmt.Errorf("parameter '%s' is defined twice with different values", k)
		}
	}
	for name, t := range other.Templates {
		if prev, ok := m.Templates[name]; ok {
			return fmt.Errorf("template '%s' is defined twice (%s and %s)", name, prev.Source, t.Source)
		}
	}
	maps.Copy(m.Params, other.Params)
	maps.Copy(m.Templates, other.Templates)
	m.Scenarios = append(m.Scenarios, other.Scenarios...)
	m.Triggers = append(m.Triggers, other.Triggers...)
	return nil
}
