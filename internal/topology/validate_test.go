package topology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarios(ids ...string) []*Scenario {
	out := make([]*Scenario, 0, len(ids))
	for _, id := range ids {
		out = append(out, NewScenario(id, nil, nil))
	}
	return out
}

func TestValidate_AcceptsGraphTopology(t *testing.T) {
	// --- Arrange ---
	g := NewGraph(newTestRegistry(t, "A", "B", "C"))
	_, err := g.AddStage("Basic (Trigger)", []string{"A"}, "")
	require.NoError(t, err)
	_, err = g.AddStage("Basic (Phase 2/2)", []string{"B", "C"}, "Basic (Trigger)")
	require.NoError(t, err)
	_, err = g.AddStage("Full (Trigger)", []string{"A"}, "")
	require.NoError(t, err)

	// --- Act ---
	v, err := Validate(g.Topology())

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, v.Stages(), 3)
	assert.Len(t, v.Roots(), 2)

	pred, ok := v.PredecessorOf("Basic (Phase 2/2)")
	require.True(t, ok)
	assert.Equal(t, "Basic (Trigger)", pred.Name())

	_, ok = v.PredecessorOf("Full (Trigger)")
	assert.False(t, ok)

	succ := v.Successors("Basic (Trigger)")
	require.Len(t, succ, 1)
	assert.Equal(t, "Basic (Phase 2/2)", succ[0].Name())

	ids := []string{}
	for _, s := range v.ScenariosOf("Basic (Phase 2/2)") {
		ids = append(ids, s.ID())
	}
	assert.Equal(t, []string{"B", "C"}, ids)

	chains := v.Chains()
	require.Len(t, chains, 2)
	assert.Len(t, chains[0], 2)
	assert.Len(t, chains[1], 1)
}

func TestValidate_IsIdempotent(t *testing.T) {
	g := NewGraph(newTestRegistry(t, "A", "B"))
	_, err := g.AddStage("S1", []string{"A"}, "")
	require.NoError(t, err)
	_, err = g.AddStage("S2", []string{"B"}, "S1", WithFailurePolicy(RunToCompletion))
	require.NoError(t, err)

	first, err := Validate(g.Topology())
	require.NoError(t, err)
	second, err := Validate(first.Topology())
	require.NoError(t, err)
	third, err := Validate(second.Topology())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, second, third)
}

func TestValidate_RejectsCycleInDirectConstruction(t *testing.T) {
	// S1 -> S2 -> S3 -> S1, impossible through Graph but valid Go.
	topo := Topology{
		Scenarios: scenarios("A"),
		Stages: []*TriggerStage{
			NewTriggerStage("S1", []string{"A"}, "S3"),
			NewTriggerStage("S2", []string{"A"}, "S1"),
			NewTriggerStage("S3", []string{"A"}, "S2"),
			NewTriggerStage("Loop", []string{"A"}, "Loop"),
			NewTriggerStage("Tail", []string{"A"}, "S3"),
		},
	}

	v, err := Validate(topo)

	assert.Nil(t, v)
	require.ErrorIs(t, err, ErrCycleDetected)
	assert.ErrorContains(t, err, "S1 -> S3 -> S2 -> S1")
	assert.ErrorContains(t, err, "Loop -> Loop")
	assert.NotErrorIs(t, err, ErrUnknownStage, "stages on a cycle are not also reported as forward references")

	var count int
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		if errors.Is(e, ErrCycleDetected) {
			count++
		}
	}
	assert.Equal(t, 2, count, "each loop is reported once")
}

func TestValidate_ForwardReference(t *testing.T) {
	topo := Topology{
		Scenarios: scenarios("A", "B"),
		Stages: []*TriggerStage{
			NewTriggerStage("S2", []string{"B"}, "S1"),
			NewTriggerStage("S1", []string{"A"}, ""),
		},
	}

	_, err := Validate(topo)

	require.ErrorIs(t, err, ErrUnknownStage)
	assert.ErrorContains(t, err, "declared after")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	// --- Arrange ---
	topo := Topology{
		Scenarios: append(scenarios("A", "A", ""), nil),
		Stages: []*TriggerStage{
			NewTriggerStage("S1", []string{"A", "ghost"}, ""),
			NewTriggerStage("S1", []string{"A"}, ""),
			NewTriggerStage("S-2", nil, "missing"),
			NewTriggerStage("S 2", []string{"A"}, ""),
		},
	}

	// --- Act ---
	v, err := Validate(topo)

	// --- Assert ---
	assert.Nil(t, v)
	for _, sentinel := range []error{ErrDuplicateID, ErrInvalidID, ErrUnknownScenario, ErrDuplicateStage, ErrEmptyStage, ErrUnknownStage} {
		assert.ErrorIs(t, err, sentinel)
	}
	assert.ErrorContains(t, err, "'S-2' and 'S 2' both map to id 'Trigger_S_2'")
}

func TestValidate_EmptyTopology(t *testing.T) {
	v, err := Validate(Topology{})

	require.NoError(t, err)
	assert.Empty(t, v.Stages())
	assert.Empty(t, v.Chains())
}
