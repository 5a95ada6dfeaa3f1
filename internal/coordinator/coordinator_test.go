package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/triggergrid/internal/events"
	"github.com/specialistvlad/triggergrid/internal/inmemorystore"
	"github.com/specialistvlad/triggergrid/internal/state"
	"github.com/specialistvlad/triggergrid/internal/statestore"
	"github.com/specialistvlad/triggergrid/internal/testutil"
	"github.com/specialistvlad/triggergrid/internal/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, c *Coordinator, ctx context.Context) (*Report, error) {
	t.Helper()
	type result struct {
		rep *Report
		err error
	}
	ch := make(chan result, 1)
	go func() {
		rep, err := c.Run(ctx)
		ch <- result{rep, err}
	}()
	select {
	case res := <-ch:
		return res.rep, res.err
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not finish in time")
		return nil, nil
	}
}

func stageStatus(t *testing.T, rep *Report, name string) state.StageStatus {
	t.Helper()
	s, ok := rep.Stage(name)
	require.True(t, ok, "stage %s missing from report", name)
	return s.Status
}

func runStatus(t *testing.T, rep *Report, stage, scenario string) state.RunStatus {
	t.Helper()
	s, ok := rep.Stage(stage)
	require.True(t, ok)
	r, ok := s.Run(scenario)
	require.True(t, ok, "run %s/%s missing from report", stage, scenario)
	return r.Status
}

func TestNew_RequiresTopologyAndExecutor(t *testing.T) {
	v := testutil.Build(t, []string{"A"}, topology.StageSpec{Name: "S1", Scenarios: []string{"A"}})

	_, err := New(nil, testutil.NewScripted(nil))
	assert.Error(t, err)
	_, err = New(v, nil)
	assert.Error(t, err)
}

func TestRun_AllScenariosSucceed(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"A", "B", "C"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A", "B"}},
		topology.StageSpec{Name: "S2", Scenarios: []string{"C", "A"}, Predecessor: "S1"},
	)
	exec := testutil.NewScripted(nil)
	rec := events.NewRecorder()
	c, err := New(v, exec, WithSink(rec))
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, rep.Succeeded())
	assert.NoError(t, rep.Err())
	assert.Equal(t, state.StageSucceeded, stageStatus(t, rep, "S1"))
	assert.Equal(t, state.StageSucceeded, stageStatus(t, rep, "S2"))
	assert.ElementsMatch(t, []string{"A", "B", "C", "A"}, exec.Started(), "a scenario shared by two stages runs once per stage")

	assert.Equal(t, []string{"running", "succeeded"}, rec.StageStatuses("S1"))
	assert.Equal(t, []string{"waiting", "running", "succeeded"}, rec.StageStatuses("S2"))
	assert.Equal(t, []string{"running", "succeeded"}, rec.RunStatuses("S2", "C"))

	for _, e := range rec.Events() {
		assert.Equal(t, rep.RunSetID, e.RunSetID)
	}
}

func TestRun_FailureCancelsSuccessorWithoutStartingIt(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"A", "B"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A"}},
		topology.StageSpec{Name: "S2", Scenarios: []string{"B"}, Predecessor: "S1"},
	)
	exec := testutil.NewScripted(map[string]testutil.Script{"A": testutil.Fail("compilation failed")})
	rec := events.NewRecorder()
	c, err := New(v, exec, WithSink(rec))
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err, "a failed pipeline is reported, not returned")
	assert.Equal(t, state.StageFailed, stageStatus(t, rep, "S1"))
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "S2"))
	assert.Equal(t, state.Failed, runStatus(t, rep, "S1", "A"))
	assert.Equal(t, []string{"A"}, exec.Started(), "B must never start")

	s2, _ := rep.Stage("S2")
	assert.Empty(t, s2.Runs)
	assert.Contains(t, s2.Reason, "predecessor 'S1' failed")
	assert.Equal(t, []string{"waiting", "cancelled"}, rec.StageStatuses("S2"))
	assert.Empty(t, rec.RunStatuses("S2", "B"))

	assert.Equal(t, []string{"S1"}, rep.FailedStages())
	assert.ErrorContains(t, rep.Err(), "compilation failed")
}

func TestRun_FailFastDoesNotWaitForSiblings(t *testing.T) {
	// --- Arrange ---
	var cancelled atomic.Int32
	var siblings sync.WaitGroup
	siblings.Add(2)
	inFlight := func(ctx context.Context) error {
		siblings.Done()
		return testutil.BlockUntilCancelled(&cancelled)(ctx)
	}
	v := testutil.Build(t, []string{"A", "B", "C"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A", "B", "C"}},
	)
	exec := testutil.NewScripted(map[string]testutil.Script{
		"A": inFlight,
		"B": inFlight,
		"C": func(context.Context) error {
			siblings.Wait()
			return errors.New("tests failed")
		},
	})
	c, err := New(v, exec)
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, state.StageFailed, stageStatus(t, rep, "S1"))
	assert.Equal(t, state.Failed, runStatus(t, rep, "S1", "C"))
	assert.Equal(t, state.Cancelled, runStatus(t, rep, "S1", "A"))
	assert.Equal(t, state.Cancelled, runStatus(t, rep, "S1", "B"))
	assert.Eventually(t, func() bool { return cancelled.Load() == 2 }, time.Second, 5*time.Millisecond,
		"in-flight siblings observe cancellation")
}

func TestRun_FailureIndependentOfCompletionOrder(t *testing.T) {
	v := testutil.Build(t, []string{"A", "B", "C"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A", "B", "C"}},
	)
	aDone, bDone := make(chan struct{}), make(chan struct{})
	exec := testutil.NewScripted(map[string]testutil.Script{
		"A": func(context.Context) error { defer close(aDone); return nil },
		"B": func(context.Context) error { <-aDone; defer close(bDone); return nil },
		"C": func(context.Context) error { <-bDone; return errors.New("late failure") },
	})
	c, err := New(v, exec)
	require.NoError(t, err)

	rep, err := run(t, c, context.Background())

	require.NoError(t, err)
	assert.Equal(t, state.StageFailed, stageStatus(t, rep, "S1"))
	assert.Equal(t, state.Succeeded, runStatus(t, rep, "S1", "A"))
	assert.Equal(t, state.Succeeded, runStatus(t, rep, "S1", "B"))
	assert.Equal(t, state.Failed, runStatus(t, rep, "S1", "C"))
}

func TestRun_CancellationPropagatesTransitively(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"Sanity", "Basic", "Full", "Cross"},
		topology.StageSpec{Name: "Full (Trigger)", Scenarios: []string{"Sanity"}},
		topology.StageSpec{Name: "Full (Phase 2/3)", Scenarios: []string{"Basic"}, Predecessor: "Full (Trigger)"},
		topology.StageSpec{Name: "Full (Phase 3/3)", Scenarios: []string{"Full"}, Predecessor: "Full (Phase 2/3)"},
		topology.StageSpec{Name: "Cross (Trigger)", Scenarios: []string{"Cross"}},
	)
	exec := testutil.NewScripted(map[string]testutil.Script{"Sanity": testutil.Fail("checkstyle violations")})
	c, err := New(v, exec)
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, state.StageFailed, stageStatus(t, rep, "Full (Trigger)"))
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "Full (Phase 2/3)"))
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "Full (Phase 3/3)"))
	assert.Equal(t, state.StageSucceeded, stageStatus(t, rep, "Cross (Trigger)"), "independent tracks are unaffected")

	p3, _ := rep.Stage("Full (Phase 3/3)")
	assert.Contains(t, p3.Reason, "predecessor 'Full (Phase 2/3)' cancelled")
	assert.NotContains(t, exec.Started(), "Basic")
	assert.NotContains(t, exec.Started(), "Full")
}

func TestRun_RunToCompletionWaitsForEveryRun(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"A", "B", "C"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A", "B"}, FailurePolicy: topology.RunToCompletion},
		topology.StageSpec{Name: "S2", Scenarios: []string{"C"}, Predecessor: "S1"},
	)
	aFailed := make(chan struct{})
	exec := testutil.NewScripted(map[string]testutil.Script{
		"A": func(context.Context) error { defer close(aFailed); return errors.New("flaky") },
		"B": func(ctx context.Context) error {
			<-aFailed
			time.Sleep(10 * time.Millisecond)
			return ctx.Err()
		},
	})
	c, err := New(v, exec)
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, state.StageFailed, stageStatus(t, rep, "S1"))
	assert.Equal(t, state.Succeeded, runStatus(t, rep, "S1", "B"), "siblings are not cancelled")
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "S2"))
}

func TestRun_ContextCancellation(t *testing.T) {
	// --- Arrange ---
	var cancelled atomic.Int32
	v := testutil.Build(t, []string{"A", "B"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A"}},
		topology.StageSpec{Name: "S2", Scenarios: []string{"B"}, Predecessor: "S1"},
	)
	started := make(chan struct{})
	exec := testutil.NewScripted(map[string]testutil.Script{
		"A": func(ctx context.Context) error {
			close(started)
			return testutil.BlockUntilCancelled(&cancelled)(ctx)
		},
	})
	store := inmemorystore.New()
	c, err := New(v, exec, WithStore(store))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())

	// --- Act ---
	go func() {
		<-started
		cancel()
	}()
	rep, err := run(t, c, ctx)

	// --- Assert ---
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep)
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "S1"))
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "S2"))
	assert.Equal(t, state.Cancelled, runStatus(t, rep, "S1", "A"))
	assert.Empty(t, rep.FailedStages())

	got, err := store.GetStageStatus(context.Background(), "S2")
	require.NoError(t, err)
	assert.Equal(t, state.StageCancelled, got)
}

func TestRun_AlreadyCancelledContext(t *testing.T) {
	v := testutil.Build(t, []string{"A"}, topology.StageSpec{Name: "S1", Scenarios: []string{"A"}})
	exec := testutil.NewScripted(nil)
	c, err := New(v, exec)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := run(t, c, ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, state.StageCancelled, stageStatus(t, rep, "S1"))
	assert.Empty(t, exec.Started())
}

func TestRun_MaxParallel(t *testing.T) {
	// --- Arrange ---
	ids := []string{"A", "B", "C", "D", "E", "F"}
	scripts := map[string]testutil.Script{}
	for _, id := range ids {
		scripts[id] = testutil.Sleep(10 * time.Millisecond)
	}
	v := testutil.Build(t, ids,
		topology.StageSpec{Name: "S1", Scenarios: ids[:3]},
		topology.StageSpec{Name: "S2", Scenarios: ids[3:]},
	)
	exec := testutil.NewScripted(scripts)
	c, err := New(v, exec, WithMaxParallel(2))
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, rep.Succeeded())
	assert.LessOrEqual(t, exec.PeakConcurrency(), 2)
	assert.Len(t, exec.Records(), len(ids))
}

func TestRun_LateResultIsDiscarded(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"A", "B"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A", "B"}},
	)
	release := make(chan struct{})
	aStarted := make(chan struct{})
	exec := testutil.NewScripted(map[string]testutil.Script{
		// A ignores cancellation and reports success after the stage failed.
		"A": func(context.Context) error { close(aStarted); <-release; return nil },
		"B": func(context.Context) error { <-aStarted; return errors.New("boom") },
	})
	rec := events.NewRecorder()
	store := inmemorystore.New()
	c, err := New(v, exec, WithSink(rec), WithStore(store))
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())
	close(release)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, state.Cancelled, runStatus(t, rep, "S1", "A"))
	assert.Never(t, func() bool {
		st, _ := store.GetRunStatus(context.Background(), statestore.RunKey{Stage: "S1", Scenario: "A"})
		return st != state.Cancelled
	}, 100*time.Millisecond, 10*time.Millisecond)
	assert.NotContains(t, rec.RunStatuses("S1", "A"), "succeeded")
}

// slowRunningStore holds up the Running write of one scenario so a
// cancellation can be decided while that write is in flight.
type slowRunningStore struct {
	*inmemorystore.Store
	scenario string
	writing  chan struct{}
	once     sync.Once
}

func (s *slowRunningStore) SetRunStatus(ctx context.Context, key statestore.RunKey, status state.RunStatus) error {
	if key.Scenario == s.scenario && status == state.Running {
		s.once.Do(func() { close(s.writing) })
		time.Sleep(100 * time.Millisecond)
	}
	return s.Store.SetRunStatus(ctx, key, status)
}

func TestRun_CancelledRunIsNotMirroredAsRunning(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"A", "B"},
		topology.StageSpec{Name: "S1", Scenarios: []string{"A", "B"}},
	)
	store := &slowRunningStore{Store: inmemorystore.New(), scenario: "B", writing: make(chan struct{})}
	var cancelled atomic.Int32
	exec := testutil.NewScripted(map[string]testutil.Script{
		"A": func(context.Context) error {
			<-store.writing
			return errors.New("compilation failed")
		},
		"B": testutil.BlockUntilCancelled(&cancelled),
	})
	rec := events.NewRecorder()
	c, err := New(v, exec, WithSink(rec), WithStore(store))
	require.NoError(t, err)

	// --- Act ---
	rep, err := run(t, c, context.Background())

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, state.Cancelled, runStatus(t, rep, "S1", "B"))
	assert.Never(t, func() bool {
		st, _ := store.GetRunStatus(context.Background(), statestore.RunKey{Stage: "S1", Scenario: "B"})
		return st != state.Cancelled
	}, 200*time.Millisecond, 10*time.Millisecond)
	statuses := rec.RunStatuses("S1", "B")
	require.NotEmpty(t, statuses)
	assert.Equal(t, "cancelled", statuses[len(statuses)-1])
}

func TestRun_ExecutorPanicFailsRun(t *testing.T) {
	v := testutil.Build(t, []string{"A"}, topology.StageSpec{Name: "S1", Scenarios: []string{"A"}})
	exec := ExecutorFunc(func(context.Context, *topology.Scenario) error { panic("nil agent") })
	c, err := New(v, exec)
	require.NoError(t, err)

	rep, err := run(t, c, context.Background())

	require.NoError(t, err)
	s1, _ := rep.Stage("S1")
	r, _ := s1.Run("A")
	assert.Equal(t, state.Failed, r.Status)
	assert.ErrorContains(t, r.Err, "executor panicked: nil agent")
}

func TestRun_IsRepeatable(t *testing.T) {
	v := testutil.Build(t, []string{"A"}, topology.StageSpec{Name: "S1", Scenarios: []string{"A"}})
	c, err := New(v, testutil.NewScripted(nil))
	require.NoError(t, err)

	first, err := run(t, c, context.Background())
	require.NoError(t, err)
	second, err := run(t, c, context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunSetID, second.RunSetID)
	assert.True(t, second.Succeeded())
}

func TestRun_ClockDrivesDurations(t *testing.T) {
	v := testutil.Build(t, []string{"A"}, topology.StageSpec{Name: "S1", Scenarios: []string{"A"}})
	var ticks atomic.Int64
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return base.Add(time.Duration(ticks.Add(1)) * time.Second) }
	c, err := New(v, testutil.NewScripted(nil), WithClock(clock))
	require.NoError(t, err)

	rep, err := run(t, c, context.Background())

	require.NoError(t, err)
	assert.Positive(t, rep.Duration())
	assert.True(t, rep.StartedAt.After(base))
	s1, _ := rep.Stage("S1")
	assert.Equal(t, "Trigger_S1", s1.ID)
	assert.True(t, s1.EndedAt.After(s1.StartedAt))
}

func TestRunStage_MissingPredecessorRecord(t *testing.T) {
	// --- Arrange ---
	v := testutil.Build(t, []string{"A"},
		testutil.Stage("S1", "", "A"),
		testutil.Stage("S2", "S1", "A"),
	)
	c, err := New(v, testutil.NewScripted(nil))
	require.NoError(t, err)
	s2, ok := v.Stage("S2")
	require.True(t, ok)
	rec := &stageRecord{stage: s2, done: make(chan struct{})}
	r := &execution{Coordinator: c, stages: map[string]*stageRecord{"S2": rec}}

	// --- Act ---
	err = r.runStage(context.Background(), rec)

	// --- Assert ---
	require.ErrorContains(t, err, "predecessor 'S1' is not part of the run")
	assert.Equal(t, state.StageCancelled, rec.Status())
	assert.True(t, isClosed(rec.done))
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
