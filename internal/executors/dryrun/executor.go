// Package dryrun provides an executor that only logs the scenarios it is
// given. Two configuration keys shape the simulated outcome:
//
//	dryrun.duration  how long the run takes, as a Go duration ("1500ms")
//	dryrun.fail      "true" makes the run fail
package dryrun

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/specialistvlad/triggergrid/internal/coordinator"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/topology"
)

const (
	DurationKey = "dryrun.duration"
	FailKey     = "dryrun.fail"
)

// ErrSimulatedFailure is returned for scenarios configured with dryrun.fail.
var ErrSimulatedFailure = errors.New("simulated failure")

// Executor implements coordinator.Executor without running anything.
type Executor struct{}

// New creates a dry-run executor.
func New() *Executor {
	return &Executor{}
}

var _ coordinator.Executor = (*Executor)(nil)

// Execute logs the scenario configuration, waits for the simulated duration
// and reports the simulated outcome.
func (e *Executor) Execute(ctx context.Context, s *topology.Scenario) error {
	logger := ctxlog.FromContext(ctx)

	cfg := s.Config()
	for _, k := range slices.Sorted(maps.Keys(cfg)) {
		logger.Debug("Scenario parameter.", "key", k, "value", cfg[k])
	}

	var wait time.Duration
	if raw, ok := cfg[DurationKey]; ok {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return fmt.Errorf("invalid %s %q", DurationKey, raw)
		}
		wait = d
	}

	fail := false
	if raw, ok := cfg[FailKey]; ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q", FailKey, raw)
		}
		fail = b
	}

	logger.Info("🧪 Dry run of scenario.", "simulated_duration", wait, "simulated_failure", fail)

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if fail {
		return ErrSimulatedFailure
	}
	return nil
}
