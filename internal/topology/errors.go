package topology

import "errors"

var (
	// ErrDuplicateID is returned when a scenario id is registered twice.
	ErrDuplicateID = errors.New("duplicate scenario id")

	// ErrDuplicateStage is returned when two stages share a name or a derived id.
	ErrDuplicateStage = errors.New("duplicate stage")

	// ErrUnknownScenario is returned for a reference to a scenario that was never registered.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrUnknownStage is returned for a predecessor that does not exist or is declared later.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrCycleDetected is returned when a predecessor chain revisits a stage.
	ErrCycleDetected = errors.New("cycle detected")

	// ErrEmptyStage is returned for a stage without scenarios.
	ErrEmptyStage = errors.New("empty stage")

	// ErrInvalidID is returned for an empty scenario id or stage name.
	ErrInvalidID = errors.New("invalid id")
)
