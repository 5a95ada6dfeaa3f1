package topology

import (
	"fmt"
	"slices"
	"strings"
)

// FailurePolicy decides how a stage reacts to a failed scenario run.
type FailurePolicy int

const (
	// FailFast fails the stage on the first failed run and cancels the rest.
	FailFast FailurePolicy = iota
	// RunToCompletion lets every run finish and fails the stage afterwards
	// if any of them failed.
	RunToCompletion
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return "fail_fast"
	case RunToCompletion:
		return "run_to_completion"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// ParseFailurePolicy maps a declared policy name to a FailurePolicy. The
// empty string means FailFast.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail_fast":
		return FailFast, nil
	case "run_to_completion":
		return RunToCompletion, nil
	default:
		return FailFast, fmt.Errorf("unsupported failure policy %q", s)
	}
}

// StageOption configures a TriggerStage.
type StageOption func(*TriggerStage)

// WithFailurePolicy sets the stage's failure policy.
func WithFailurePolicy(p FailurePolicy) StageOption {
	return func(s *TriggerStage) {
		s.policy = p
	}
}

// TriggerStage gates progress on a set of scenarios and, optionally, on one
// earlier stage.
type TriggerStage struct {
	name        string
	scenarios   []string
	predecessor string
	policy      FailurePolicy
}

// NewTriggerStage creates a stage. An empty predecessor means the stage is a
// root. Repeated scenario ids are collapsed, keeping the first occurrence.
func NewTriggerStage(name string, scenarioIDs []string, predecessor string, opts ...StageOption) *TriggerStage {
	seen := make(map[string]struct{}, len(scenarioIDs))
	ids := make([]string, 0, len(scenarioIDs))
	for _, id := range scenarioIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	s := &TriggerStage{name: name, scenarios: ids, predecessor: predecessor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the display name.
func (s *TriggerStage) Name() string { return s.name }

// ID returns the stable identifier derived from the name.
func (s *TriggerStage) ID() string { return StageID(s.name) }

// Scenarios returns a copy of the scenario ids, in declaration order.
func (s *TriggerStage) Scenarios() []string { return slices.Clone(s.scenarios) }

// Predecessor returns the predecessor stage name, or "" for a root stage.
func (s *TriggerStage) Predecessor() string { return s.predecessor }

// IsRoot reports whether the stage has no predecessor.
func (s *TriggerStage) IsRoot() bool { return s.predecessor == "" }

// FailurePolicy returns the stage's failure policy.
func (s *TriggerStage) FailurePolicy() FailurePolicy { return s.policy }

var idReplacer = strings.NewReplacer(
	" ", "_",
	"-", "_",
	"(", "",
	")", "",
	"/", "",
	",", "",
)

// StageID derives a stage identifier from its display name:
// "Basic Test Coverage (Phase 2/2)" becomes "Trigger_Basic_Test_Coverage_Phase_22".
func StageID(name string) string {
	return "Trigger_" + idReplacer.Replace(name)
}
