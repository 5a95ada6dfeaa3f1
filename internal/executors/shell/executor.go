// Package shell provides an executor that runs a scenario's `command` through
// the platform shell on the local machine, acting as a single build agent.
//
// Recognised configuration keys:
//
//	command  the command line to run (required)
//	workdir  the working directory, defaults to the current one
//	env.NAME exported to the command as NAME
//
// Scenario requirements are checked against the agent properties before
// anything is started.
package shell

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/triggergrid/internal/coordinator"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/specialistvlad/triggergrid/internal/topology"
)

const (
	CommandKey = "command"
	WorkdirKey = "workdir"
	EnvPrefix  = "env."

	// OSNameProperty is the agent property describing the operating system.
	OSNameProperty = "agent.os.name"
	// OSArchProperty is the agent property describing the CPU architecture.
	OSArchProperty = "agent.os.arch"
)

var (
	// ErrRequirementsUnmet is returned when this agent cannot run the scenario.
	ErrRequirementsUnmet = errors.New("agent does not meet scenario requirements")

	// ErrNoCommand is returned when the scenario has no command to run.
	ErrNoCommand = errors.New("scenario has no command")
)

// Executor implements coordinator.Executor with os/exec.
type Executor struct {
	shell      []string
	properties map[string]string
	waitDelay  time.Duration
}

var _ coordinator.Executor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithProperties adds agent properties, overriding the detected defaults.
func WithProperties(props map[string]string) Option {
	return func(e *Executor) {
		maps.Copy(e.properties, props)
	}
}

// WithShell replaces the shell invocation. The command line is appended as
// the last argument.
func WithShell(argv ...string) Option {
	return func(e *Executor) {
		if len(argv) > 0 {
			e.shell = slices.Clone(argv)
		}
	}
}

// WithWaitDelay bounds how long a cancelled command may keep running after
// it was interrupted before it is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Executor) {
		e.waitDelay = d
	}
}

// New creates a shell executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		shell:      defaultShell(),
		properties: DefaultProperties(),
		waitDelay:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Properties returns a copy of the agent properties requirements are checked
// against.
func (e *Executor) Properties() map[string]string {
	return maps.Clone(e.properties)
}

// DefaultProperties describes the local machine.
func DefaultProperties() map[string]string {
	return map[string]string{
		OSNameProperty: osName(runtime.GOOS),
		OSArchProperty: runtime.GOARCH,
	}
}

func osName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Mac OS X"
	case "windows":
		return "Windows"
	case "":
		return ""
	default:
		return strings.ToUpper(goos[:1]) + goos[1:]
	}
}

func defaultShell() []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C"}
	}
	return []string{"sh", "-c"}
}

// Execute runs the scenario's command and waits for it to finish.
func (e *Executor) Execute(ctx context.Context, s *topology.Scenario) error {
	logger := ctxlog.FromContext(ctx)

	if unmet := s.Unmet(e.properties); len(unmet) > 0 {
		parts := make([]string, len(unmet))
		for i, r := range unmet {
			parts[i] = r.String()
		}
		return fmt.Errorf("%w: %s", ErrRequirementsUnmet, strings.Join(parts, "; "))
	}

	command, _ := s.Param(CommandKey)
	if strings.TrimSpace(command) == "" {
		return ErrNoCommand
	}

	args := append(slices.Clone(e.shell[1:]), command)
	cmd := exec.CommandContext(ctx, e.shell[0], args...)
	if runtime.GOOS != "windows" {
		cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	}
	cmd.WaitDelay = e.waitDelay
	if dir, ok := s.Param(WorkdirKey); ok && dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), environment(s.Config())...)

	stdout := newLineLogger(logger, "stdout")
	stderr := newLineLogger(logger, "stderr")
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Info("🚀 Running scenario command.", "command", command, "workdir", cmd.Dir)
	err := cmd.Run()
	stdout.Flush()
	stderr.Flush()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("command exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to run command: %w", err)
	}
	return nil
}

// environment turns env.* configuration keys into NAME=value pairs, sorted
// by name.
func environment(cfg map[string]string) []string {
	var env []string
	for _, k := range slices.Sorted(maps.Keys(cfg)) {
		name, ok := strings.CutPrefix(k, EnvPrefix)
		if !ok || name == "" {
			continue
		}
		env = append(env, name+"="+cfg[k])
	}
	return env
}
