package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/triggergrid/internal/config"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/inmemorystore"
	"github.com/specialistvlad/triggergrid/internal/metrics"
	"github.com/specialistvlad/triggergrid/internal/statestore"
	"github.com/specialistvlad/triggergrid/internal/topology"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	topology   *topology.ValidatedTopology
	store      statestore.Store
	metrics    *metrics.Collector
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads and validates
// the pipeline, so a returned App is always ready to run. Each App owns an
// isolated logger, state store and metrics registry.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.PipelinePaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline: %w", err)
	}
	logger.Debug("Pipeline loaded into unified model.",
		"params", len(model.Params),
		"templates", len(model.Templates),
		"scenarios", len(model.Scenarios),
		"triggers", len(model.Triggers),
	)

	scenarios, stages, err := model.Declarations()
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline declarations: %w", err)
	}

	topo, err := topology.Build(scenarios, stages)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline topology: %w", err)
	}
	logger.Info("📋 Pipeline topology validated.",
		"scenarios", len(topo.Scenarios()),
		"stages", len(topo.Stages()),
		"tracks", len(topo.Chains()),
	)

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		topology: topo,
		store:    inmemorystore.New(),
		metrics:  metrics.NewCollector(""),
	}, nil
}

// Topology returns the validated pipeline. This is primarily for testing.
func (a *App) Topology() *topology.ValidatedTopology {
	return a.topology
}

// Metrics returns the application's metrics collector.
func (a *App) Metrics() *metrics.Collector {
	return a.metrics
}
