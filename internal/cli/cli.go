package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/specialistvlad/triggergrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// propertiesFlag collects repeated key=value flags.
type propertiesFlag map[string]string

func (p propertiesFlag) String() string {
	parts := make([]string, 0, len(p))
	for _, k := range slices.Sorted(maps.Keys(p)) {
		parts = append(parts, k+"="+p[k])
	}
	return strings.Join(parts, ",")
}

func (p propertiesFlag) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return errors.New("agent property must look like key=value")
	}
	p[key] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("triggergrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
TriggerGrid - Runs pipelines of build scenarios grouped into trigger stages.

Usage:
  triggergrid [options] [PIPELINE_PATH...]

Arguments:
  PIPELINE_PATH
    Path to a .hcl, .yaml or .yml file, or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	pipelineFlag := flagSet.String("pipeline", "", "Path to the pipeline file or directory.")
	pFlag := flagSet.String("p", "", "Path to the pipeline file or directory (shorthand).")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check, metrics and status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	executorFlag := flagSet.String("executor", app.ExecutorDryRun, "Scenario executor. Options: 'dryrun' or 'shell'.")
	maxParallelFlag := flagSet.Int("max-parallel", 0, "Maximum number of scenario runs in flight. 0 is unlimited.")
	timeoutFlag := flagSet.Duration("timeout", 0, "Cancel the pipeline run after this long. 0 is no timeout.")
	validateOnlyFlag := flagSet.Bool("validate-only", false, "Load and validate the pipeline, print its tracks and exit.")
	socketURLFlag := flagSet.String("socketio-url", "", "socket.io server that receives stage transitions. Empty is disabled.")
	socketNSFlag := flagSet.String("socketio-namespace", "/", "socket.io namespace for stage transitions.")
	socketInsecureFlag := flagSet.Bool("socketio-insecure", false, "Skip TLS certificate verification for the socket.io server.")
	socketStagesOnlyFlag := flagSet.Bool("socketio-stages-only", false, "Send only stage transitions to socket.io, not scenario runs.")
	props := propertiesFlag{}
	flagSet.Var(props, "agent-property", "Agent property as key=value, checked against scenario requirements. Repeatable.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	if *pipelineFlag != "" {
		paths = append(paths, *pipelineFlag)
	} else if *pFlag != "" {
		paths = append(paths, *pFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Pipeline paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No pipeline path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PipelinePaths:      paths,
		HealthcheckPort:    *healthPortFlag,
		LogFormat:          logFormat,
		LogLevel:           logLevel,
		Executor:           strings.ToLower(*executorFlag),
		MaxParallel:        *maxParallelFlag,
		Timeout:            *timeoutFlag,
		ValidateOnly:       *validateOnlyFlag,
		SocketIOURL:        *socketURLFlag,
		SocketIONamespace:  *socketNSFlag,
		SocketIOInsecure:   *socketInsecureFlag,
		SocketIOStagesOnly: *socketStagesOnlyFlag,
		AgentProperties:    props,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
