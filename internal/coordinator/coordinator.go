package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/events"
	"github.com/specialistvlad/triggergrid/internal/inmemorystore"
	"github.com/specialistvlad/triggergrid/internal/state"
	"github.com/specialistvlad/triggergrid/internal/statestore"
	"github.com/specialistvlad/triggergrid/internal/topology"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Executor runs one scenario. A nil error means the run succeeded. The context
// is cancelled when the run is no longer wanted; implementations should stop
// as soon as they notice.
type Executor interface {
	Execute(ctx context.Context, s *topology.Scenario) error
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, s *topology.Scenario) error

// Execute calls f(ctx, s).
func (f ExecutorFunc) Execute(ctx context.Context, s *topology.Scenario) error {
	return f(ctx, s)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithSink sets where transition events are published.
func WithSink(s events.Sink) Option {
	return func(c *Coordinator) {
		c.sink = events.Multi(s)
	}
}

// WithStore sets the store mirroring stage and run statuses.
func WithStore(s statestore.Store) Option {
	return func(c *Coordinator) {
		c.store = s
	}
}

// WithMaxParallel bounds the number of scenario runs executing at the same
// time across all stages. Zero or less means no bound.
func WithMaxParallel(n int) Option {
	return func(c *Coordinator) {
		c.maxParallel = n
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}

// Coordinator executes a ValidatedTopology. A Coordinator may be run several
// times, but not concurrently.
type Coordinator struct {
	topo        *topology.ValidatedTopology
	exec        Executor
	sink        events.Sink
	store       statestore.Store
	maxParallel int
	now         func() time.Time
}

// New creates a Coordinator.
func New(t *topology.ValidatedTopology, exec Executor, opts ...Option) (*Coordinator, error) {
	if t == nil {
		return nil, errors.New("coordinator requires a validated topology")
	}
	if exec == nil {
		return nil, errors.New("coordinator requires an executor")
	}
	c := &Coordinator{
		topo:  t,
		exec:  exec,
		sink:  events.Discard,
		store: inmemorystore.New(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Store returns the store the coordinator mirrors its state into.
func (c *Coordinator) Store() statestore.Store {
	return c.store
}

// Run executes every stage and blocks until each of them is terminal. A failed
// pipeline is not an error: inspect the Report. The error is non-nil only when
// ctx ended before the pipeline did or a stage broke a coordinator invariant;
// the partial Report is returned with it.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	runSetID := uuid.NewString()
	ctx, logger := ctxlog.With(ctx, "run_set_id", runSetID)

	if err := c.store.Reset(ctx); err != nil {
		logger.Warn("Failed to reset state store.", "error", err)
	}

	r := &execution{
		Coordinator: c,
		runSetID:    runSetID,
		stages:      make(map[string]*stageRecord),
	}
	if c.maxParallel > 0 {
		r.sem = semaphore.NewWeighted(int64(c.maxParallel))
	}

	stages := c.topo.Stages()
	records := make([]*stageRecord, 0, len(stages))
	for _, s := range stages {
		rec := &stageRecord{stage: s, done: make(chan struct{})}
		r.stages[s.Name()] = rec
		records = append(records, rec)
		if err := c.store.SetStageStatus(ctx, s.Name(), state.StageIdle); err != nil {
			logger.Warn("Failed to record stage status.", "stage", s.Name(), "error", err)
		}
	}

	started := c.now()
	logger.Info("▶️ Starting pipeline run.", "stages", len(stages), "scenarios", len(c.topo.Scenarios()), "max_parallel", c.maxParallel)

	// Stages only return an error when the coordinator itself is broken; the
	// group context then stops the remaining stages.
	g, gctx := errgroup.WithContext(ctx)
	for _, rec := range records {
		g.Go(func() error {
			return r.runStage(gctx, rec)
		})
	}
	groupErr := g.Wait()

	report := newReport(runSetID, started, c.now(), records)
	if groupErr != nil {
		logger.Error("Pipeline run aborted.", "error", groupErr)
		return report, groupErr
	}
	if err := ctx.Err(); err != nil {
		logger.Warn("Pipeline run interrupted.", "error", err)
		return report, err
	}
	if report.Succeeded() {
		logger.Info("✅ Pipeline run succeeded.", "duration", report.Duration())
	} else {
		logger.Warn("❌ Pipeline run failed.", "failed_stages", report.FailedStages(), "duration", report.Duration())
	}
	return report, nil
}
