package hclconfig

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Params    hcl.Expression   `hcl:"params,optional"`
	Templates []*templateBlock `hcl:"template,block"`
	Scenarios []*scenarioBlock `hcl:"scenario,block"`
	Triggers  []*triggerBlock  `hcl:"trigger,block"`
}

// templateBlock is a `template "name" { ... }` block.
type templateBlock struct {
	Name         string              `hcl:"name,label"`
	Config       hcl.Expression      `hcl:"config,optional"`
	Requirements []*requirementBlock `hcl:"requirement,block"`
	DeclRange    hcl.Range           `hcl:",def_range"`
}

// scenarioBlock is a `scenario "id" { ... }` block.
type scenarioBlock struct {
	ID           string              `hcl:"id,label"`
	Templates    []string            `hcl:"templates,optional"`
	Config       hcl.Expression      `hcl:"config,optional"`
	Requirements []*requirementBlock `hcl:"requirement,block"`
	DeclRange    hcl.Range           `hcl:",def_range"`
}

// requirementBlock is a `requirement { ... }` block inside a template or scenario.
type requirementBlock struct {
	Property  string `hcl:"property"`
	Condition string `hcl:"condition,optional"`
	Value     string `hcl:"value,optional"`
}

// triggerBlock is a `trigger "name" { ... }` block.
type triggerBlock struct {
	Name          string    `hcl:"name,label"`
	Scenarios     []string  `hcl:"scenarios"`
	Predecessor   string    `hcl:"predecessor,optional"`
	FailurePolicy string    `hcl:"failure_policy,optional"`
	DeclRange     hcl.Range `hcl:",def_range"`
}
