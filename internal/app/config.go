package app

import (
	"errors"
	"fmt"
	"time"
)

const (
	ExecutorDryRun = "dryrun"
	ExecutorShell  = "shell"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePaths []string // .hcl, .yaml and .yml files or directories

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	Executor        string
	MaxParallel     int
	Timeout         time.Duration
	ValidateOnly    bool
	AgentProperties map[string]string

	SocketIOURL        string
	SocketIONamespace  string
	SocketIOInsecure   bool
	SocketIOStagesOnly bool
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.PipelinePaths) == 0 {
		return nil, errors.New("PipelinePaths is a required configuration field and cannot be empty")
	}
	if cfg.Executor == "" {
		cfg.Executor = ExecutorDryRun
	}
	switch cfg.Executor {
	case ExecutorDryRun, ExecutorShell:
	default:
		return nil, fmt.Errorf("unknown executor '%s': must be '%s' or '%s'", cfg.Executor, ExecutorDryRun, ExecutorShell)
	}
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max-parallel must not be negative, got %d", cfg.MaxParallel)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck-port %d is out of range", cfg.HealthcheckPort)
	}
	return &cfg, nil
}
