package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/triggergrid/internal/state"
)

// Report is the outcome of one Run.
type Report struct {
	RunSetID  string
	StartedAt time.Time
	EndedAt   time.Time
	Stages    []StageReport
}

// StageReport is the outcome of one stage. Runs is empty for stages that
// never entered Running.
type StageReport struct {
	Name      string
	ID        string
	Status    state.StageStatus
	Reason    string
	StartedAt time.Time
	EndedAt   time.Time
	Runs      []RunReport
}

// RunReport is the outcome of one scenario run.
type RunReport struct {
	ID       string
	Scenario string
	Status   state.RunStatus
	Err      error
	Duration time.Duration
}

func newReport(runSetID string, started, ended time.Time, records []*stageRecord) *Report {
	rep := &Report{
		RunSetID:  runSetID,
		StartedAt: started,
		EndedAt:   ended,
		Stages:    make([]StageReport, 0, len(records)),
	}
	for _, rec := range records {
		sr := StageReport{
			Name:      rec.stage.Name(),
			ID:        rec.stage.ID(),
			Status:    rec.Status(),
			Reason:    rec.reason,
			StartedAt: rec.started,
			EndedAt:   rec.ended,
		}
		for _, run := range rec.runs {
			sr.Runs = append(sr.Runs, RunReport{
				ID:       run.ID,
				Scenario: run.Scenario,
				Status:   run.Status(),
				Err:      run.Err(),
				Duration: run.Duration(),
			})
		}
		rep.Stages = append(rep.Stages, sr)
	}
	return rep
}

// Duration is the wall time of the whole run.
func (r *Report) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Succeeded reports whether every stage succeeded.
func (r *Report) Succeeded() bool {
	for _, s := range r.Stages {
		if s.Status != state.StageSucceeded {
			return false
		}
	}
	return true
}

// Stage returns the report of the named stage.
func (r *Report) Stage(name string) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// FailedStages returns the names of the stages that ended Failed.
func (r *Report) FailedStages() []string {
	var names []string
	for _, s := range r.Stages {
		if s.Status == state.StageFailed {
			names = append(names, s.Name)
		}
	}
	return names
}

// Err summarises the failed stages as one error, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, s := range r.Stages {
		if s.Status == state.StageFailed {
			errs = append(errs, fmt.Errorf("stage '%s' failed: %s", s.Name, s.Reason))
		}
	}
	return errors.Join(errs...)
}

// Run returns the report of the run of scenario within the named stage.
func (s StageReport) Run(scenario string) (RunReport, bool) {
	for _, r := range s.Runs {
		if r.Scenario == scenario {
			return r, true
		}
	}
	return RunReport{}, false
}
