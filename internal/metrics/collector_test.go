package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specialistvlad/triggergrid/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_StageTransitions(t *testing.T) {
	// --- Arrange ---
	c := NewCollector("")
	ctx := context.Background()

	// --- Act ---
	c.Publish(ctx, events.Event{Kind: events.KindStage, Stage: "S1", From: "idle", To: "running"})
	c.Publish(ctx, events.Event{Kind: events.KindStage, Stage: "S2", From: "idle", To: "waiting"})
	runningMid := testutil.ToFloat64(c.StagesRunning)
	c.Publish(ctx, events.Event{Kind: events.KindStage, Stage: "S1", From: "running", To: "failed", Duration: 2 * time.Second})
	c.Publish(ctx, events.Event{Kind: events.KindStage, Stage: "S2", From: "waiting", To: "cancelled"})

	// --- Assert ---
	assert.Equal(t, float64(1), runningMid)
	assert.Equal(t, float64(0), testutil.ToFloat64(c.StagesRunning))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.StageTransitions.WithLabelValues("S1", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.StageTransitions.WithLabelValues("S2", "cancelled")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.StageDuration), "only stages that ran are timed")
}

func TestCollector_ScenarioRuns(t *testing.T) {
	c := NewCollector("ci")
	ctx := context.Background()

	c.Publish(ctx, events.Event{Kind: events.KindRun, Stage: "S1", Scenario: "A", From: "pending", To: "running"})
	c.Publish(ctx, events.Event{Kind: events.KindRun, Stage: "S1", Scenario: "A", From: "running", To: "succeeded", Duration: time.Second})
	c.Publish(ctx, events.Event{Kind: events.KindRun, Stage: "S1", Scenario: "B", From: "pending", To: "cancelled"})

	assert.Equal(t, float64(1), testutil.ToFloat64(c.ScenarioRuns.WithLabelValues("succeeded")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.ScenarioRuns.WithLabelValues("cancelled")))

	expected := `
# HELP ci_scenario_runs_total Total number of finished scenario runs by final status
# TYPE ci_scenario_runs_total counter
ci_scenario_runs_total{status="cancelled"} 1
ci_scenario_runs_total{status="succeeded"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "ci_scenario_runs_total"))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("")
	c.Publish(context.Background(), events.Event{Kind: events.KindStage, Stage: "S1", From: "idle", To: "running"})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `triggergrid_stage_transitions_total{stage="S1",status="running"} 1`)
	assert.Contains(t, string(body), "triggergrid_stages_running 1")
}
