package topology

// Topology is a declared, not yet validated, pipeline.
type Topology struct {
	Scenarios []*Scenario
	Stages    []*TriggerStage
}

// ValidatedTopology is a Topology that passed Validate. It is read-only and
// safe for concurrent use.
type ValidatedTopology struct {
	scenarios     map[string]*Scenario
	scenarioOrder []*Scenario
	stages        []*TriggerStage
	stageIndex    map[string]int
	successors    map[string][]string
}

// Scenario returns the scenario with the given id.
func (v *ValidatedTopology) Scenario(id string) (*Scenario, bool) {
	s, ok := v.scenarios[id]
	return s, ok
}

// Scenarios returns every scenario in declaration order.
func (v *ValidatedTopology) Scenarios() []*Scenario {
	out := make([]*Scenario, len(v.scenarioOrder))
	copy(out, v.scenarioOrder)
	return out
}

// Stages returns every stage in declaration order.
func (v *ValidatedTopology) Stages() []*TriggerStage {
	out := make([]*TriggerStage, len(v.stages))
	copy(out, v.stages)
	return out
}

// Stage returns the stage with the given name.
func (v *ValidatedTopology) Stage(name string) (*TriggerStage, bool) {
	i, ok := v.stageIndex[name]
	if !ok {
		return nil, false
	}
	return v.stages[i], true
}

// ScenariosOf returns the scenarios the named stage fans out to.
func (v *ValidatedTopology) ScenariosOf(name string) []*Scenario {
	s, ok := v.Stage(name)
	if !ok {
		return nil
	}
	out := make([]*Scenario, 0, len(s.scenarios))
	for _, id := range s.scenarios {
		out = append(out, v.scenarios[id])
	}
	return out
}

// PredecessorOf returns the stage the named stage waits on.
func (v *ValidatedTopology) PredecessorOf(name string) (*TriggerStage, bool) {
	s, ok := v.Stage(name)
	if !ok || s.IsRoot() {
		return nil, false
	}
	return v.Stage(s.predecessor)
}

// Successors returns the stages whose predecessor is the named stage.
func (v *ValidatedTopology) Successors(name string) []*TriggerStage {
	names := v.successors[name]
	out := make([]*TriggerStage, 0, len(names))
	for _, n := range names {
		out = append(out, v.stages[v.stageIndex[n]])
	}
	return out
}

// Roots returns the stages without a predecessor.
func (v *ValidatedTopology) Roots() []*TriggerStage {
	var roots []*TriggerStage
	for _, s := range v.stages {
		if s.IsRoot() {
			roots = append(roots, s)
		}
	}
	return roots
}

// Chains returns every track: a path from a root stage down to a stage
// without successors. A stage that is the predecessor of several stages
// appears in several chains.
func (v *ValidatedTopology) Chains() [][]*TriggerStage {
	var chains [][]*TriggerStage
	var walk func(s *TriggerStage, path []*TriggerStage)
	walk = func(s *TriggerStage, path []*TriggerStage) {
		path = append(path, s)
		next := v.Successors(s.name)
		if len(next) == 0 {
			chain := make([]*TriggerStage, len(path))
			copy(chain, path)
			chains = append(chains, chain)
			return
		}
		for _, n := range next {
			walk(n, path)
		}
	}
	for _, r := range v.Roots() {
		walk(r, nil)
	}
	return chains
}

// Topology returns the declared form of the validated topology.
func (v *ValidatedTopology) Topology() Topology {
	return Topology{Scenarios: v.Scenarios(), Stages: v.Stages()}
}
