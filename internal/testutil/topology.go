package testutil

import (
	"testing"

	"github.com/specialistvlad/triggergrid/internal/topology"
	"github.com/stretchr/testify/require"
)

// Build validates a topology of configless scenarios, failing the test on
// any error.
func Build(t *testing.T, scenarioIDs []string, stages ...topology.StageSpec) *topology.ValidatedTopology {
	t.Helper()
	specs := make([]topology.ScenarioSpec, 0, len(scenarioIDs))
	for _, id := range scenarioIDs {
		specs = append(specs, topology.ScenarioSpec{ID: id})
	}
	v, err := topology.Build(specs, stages)
	require.NoError(t, err)
	return v
}

// Stage is shorthand for a StageSpec.
func Stage(name, predecessor string, scenarios ...string) topology.StageSpec {
	return topology.StageSpec{Name: name, Scenarios: scenarios, Predecessor: predecessor}
}
