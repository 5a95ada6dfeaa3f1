package topology

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Condition is the comparison a Requirement applies to an agent property.
type Condition string

const (
	ConditionEquals         Condition = "equals"
	ConditionContains       Condition = "contains"
	ConditionExists         Condition = "exists"
	ConditionDoesNotContain Condition = "does_not_contain"
)

// ParseCondition maps a declared condition name to a Condition. The empty
// string means ConditionEquals.
func ParseCondition(s string) (Condition, error) {
	switch c := Condition(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ConditionEquals, nil
	case ConditionEquals, ConditionContains, ConditionExists, ConditionDoesNotContain:
		return c, nil
	default:
		return "", fmt.Errorf("unsupported requirement condition %q", s)
	}
}

// Requirement is a scheduling constraint a build agent must satisfy before it
// can run a scenario, e.g. {agent.os.name contains Linux}.
type Requirement struct {
	Property  string
	Condition Condition
	Value     string
}

// Matches evaluates the requirement against a set of agent properties.
func (r Requirement) Matches(props map[string]string) bool {
	actual, ok := props[r.Property]
	switch r.Condition {
	case ConditionExists:
		return ok
	case ConditionContains:
		return ok && strings.Contains(actual, r.Value)
	case ConditionDoesNotContain:
		return !ok || !strings.Contains(actual, r.Value)
	default:
		return ok && actual == r.Value
	}
}

func (r Requirement) String() string {
	if r.Condition == ConditionExists {
		return fmt.Sprintf("%s %s", r.Property, r.Condition)
	}
	return fmt.Sprintf("%s %s %q", r.Property, r.Condition, r.Value)
}

// Scenario is a leaf build variant: one OS, runtime and task combination.
// A Scenario is immutable; accessors hand out copies.
type Scenario struct {
	id           string
	config       map[string]string
	requirements []Requirement
}

// NewScenario creates a Scenario, copying config and requirements so later
// changes by the caller do not leak in.
func NewScenario(id string, config map[string]string, requirements []Requirement) *Scenario {
	cfg := make(map[string]string, len(config))
	maps.Copy(cfg, config)
	return &Scenario{
		id:           id,
		config:       cfg,
		requirements: slices.Clone(requirements),
	}
}

// ID returns the scenario id.
func (s *Scenario) ID() string { return s.id }

// Config returns a copy of the configuration map.
func (s *Scenario) Config() map[string]string {
	return maps.Clone(s.config)
}

// Param returns one configuration value.
func (s *Scenario) Param(key string) (string, bool) {
	v, ok := s.config[key]
	return v, ok
}

// Requirements returns a copy of the scheduling requirements.
func (s *Scenario) Requirements() []Requirement {
	return slices.Clone(s.requirements)
}

// Unmet returns the requirements not satisfied by the given agent properties.
func (s *Scenario) Unmet(props map[string]string) []Requirement {
	var unmet []Requirement
	for _, r := range s.requirements {
		if !r.Matches(props) {
			unmet = append(unmet, r)
		}
	}
	return unmet
}
