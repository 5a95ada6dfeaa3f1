package topology

// ScenarioSpec declares one scenario for Build.
type ScenarioSpec struct {
	ID           string
	Config       map[string]string
	Requirements []Requirement
}

// StageSpec declares one trigger stage for Build. An empty Predecessor makes
// the stage a root.
type StageSpec struct {
	Name          string
	Scenarios     []string
	Predecessor   string
	FailurePolicy FailurePolicy
}

// Build registers the scenarios, adds the stages in order and validates the
// result. It stops at the first construction error; a topology is either
// accepted whole or not at all.
func Build(scenarios []ScenarioSpec, stages []StageSpec) (*ValidatedTopology, error) {
	reg := NewRegistry()
	for _, s := range scenarios {
		if _, err := reg.Register(s.ID, s.Config, s.Requirements); err != nil {
			return nil, err
		}
	}

	g := NewGraph(reg)
	for _, s := range stages {
		if _, err := g.AddStage(s.Name, s.Scenarios, s.Predecessor, WithFailurePolicy(s.FailurePolicy)); err != nil {
			return nil, err
		}
	}

	return Validate(g.Topology())
}
