package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/dshills/critic/internal/cache"
	"github.com/dshills/critic/internal/classifier"
	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/logging"
	"github.com/dshills/critic/internal/providers"
	"github.com/dshills/critic/internal/review"
	"github.com/dshills/critic/internal/sandbox"
)

// errProviderSetup marks a failure to construct the advisory backend,
// typically a missing API key.
var errProviderSetup = errors.New("advisory provider setup failed")

func newLogger(cfg config.Config) hclog.Logger {
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	return logging.New("critic", level, os.Stderr)
}

// buildPipeline assembles the analysis pipeline from cfg. A nil limiter
// leaves advisory calls unthrottled.
func buildPipeline(cfg config.Config, logger hclog.Logger, limiter *rate.Limiter) (*review.Pipeline, error) {
	model, err := classifier.Default()
	if err != nil {
		return nil, fmt.Errorf("training classifier: %w", err)
	}
	rules, err := review.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	opts := review.Options{
		Model:           model,
		ExecTimeout:     time.Duration(cfg.Sandbox.TimeoutSeconds) * time.Second,
		AdvisoryModel:   cfg.Model,
		AdvisoryTimeout: time.Duration(cfg.AdvisoryTimeoutSeconds) * time.Second,
		Limiter:         limiter,
		RedactSecrets:   cfg.Privacy.RedactSecrets,
		Rules:           rules,
		Version:         version,
		Logger:          logger,
	}

	if cfg.Sandbox.Enabled {
		opts.Executor = sandbox.NewPython(sandbox.PythonOptions{
			Interpreter:   cfg.Sandbox.Python,
			MemoryMB:      cfg.Sandbox.MemoryMB,
			MaxConcurrent: int64(cfg.Sandbox.MaxConcurrent),
			Logger:        logger,
		})
	}

	if cfg.AdvisoryEnabled {
		advisor, err := providers.New(cfg.Provider, providers.Options{
			Model:    cfg.Model,
			Endpoint: cfg.Endpoint,
			Timeout:  opts.AdvisoryTimeout,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errProviderSetup, err)
		}
		opts.Advisor = advisor

		c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if err != nil {
			return nil, fmt.Errorf("opening cache: %w", err)
		}
		opts.Cache = c
	}

	return review.New(opts)
}

// setupExitCode maps a buildPipeline error to an exit code.
func setupExitCode(err error) int {
	if errors.Is(err, errProviderSetup) || providers.IsAuthError(err) {
		return ExitAuthError
	}
	return ExitRuntimeError
}
