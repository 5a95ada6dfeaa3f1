package yamlconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type document struct {
	Params    map[string]scalar      `yaml:"params"`
	Templates map[string]templateDoc `yaml:"templates"`
	Scenarios []scenarioDoc          `yaml:"scenarios"`
	Triggers  []triggerDoc           `yaml:"triggers"`
}

type templateDoc struct {
	Config       map[string]scalar `yaml:"config"`
	Requirements []requirementDoc  `yaml:"requirements"`
}

type scenarioDoc struct {
	ID           string            `yaml:"id"`
	Templates    []string          `yaml:"templates"`
	Config       map[string]scalar `yaml:"config"`
	Requirements []requirementDoc  `yaml:"requirements"`
}

type requirementDoc struct {
	Property  string `yaml:"property"`
	Condition string `yaml:"condition"`
	Value     string `yaml:"value"`
}

type triggerDoc struct {
	Name          string   `yaml:"name"`
	Scenarios     []string `yaml:"scenarios"`
	Predecessor   string   `yaml:"predecessor"`
	FailurePolicy string   `yaml:"failure_policy"`
}

// scalar is a config value. Strings, numbers and booleans are kept exactly as
// written; null becomes the empty string.
type scalar string

func (s *scalar) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: config values must be scalars", n.Line)
	}
	if n.Tag == "!!null" {
		*s = ""
		return nil
	}
	*s = scalar(n.Value)
	return nil
}

func toStrings(in map[string]scalar) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = string(v)
	}
	return out
}
