package app

import (
	"fmt"

	"github.com/specialistvlad/triggergrid/internal/coordinator"
	"github.com/specialistvlad/triggergrid/internal/executors/dryrun"
	"github.com/specialistvlad/triggergrid/internal/executors/shell"
)

// newExecutor builds the scenario executor selected in the configuration.
func (a *App) newExecutor() (coordinator.Executor, error) {
	switch a.config.Executor {
	case ExecutorDryRun, "":
		return dryrun.New(), nil
	case ExecutorShell:
		e := shell.New(shell.WithProperties(a.config.AgentProperties))
		a.logger.Debug("Shell executor configured.", "agent_properties", e.Properties())
		return e, nil
	default:
		return nil, fmt.Errorf("unknown executor '%s'", a.config.Executor)
	}
}
