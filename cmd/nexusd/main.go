// Command nexusd is the NEXUS agent orchestration daemon: an HTTP API
// server in front of the workflow engine, its PTY-backed agent
// supervisor, and its workflow/checkpoint/history stores.
//
// Usage:
//
//	nexusd [flags]
//
// Flags:
//
//	-env string
//	    Configuration profile: development, production, or testing (default "production")
//	-agent-binary string
//	    External agent CLI to spawn (default "claude")
//	-max-concurrent-agents int
//	    Global concurrency cap on running agents (default 4)
//	-log-level string
//	    Minimum log level (default "info")
//	-log-pretty
//	    Write human-readable logs instead of JSON
//
// The bind port defaults to config.Config.HTTPBasePort (9999), overridable
// by the NEXUS_API_PORT environment variable; if that port is in use, nexusd
// scans the next nine ports before giving up.
//
// nexusd exposes the following endpoints:
//
//	POST   /api/v1/execute                       - Execute a workflow graph
//	POST   /api/v1/execute-enhanced              - Execute with explicit Options
//	POST   /api/v1/execute-orchestrated          - Execute from a natural-language prompt
//	POST   /api/v1/validate                      - Validate a workflow graph
//	GET    /api/v1/executions/{id}                - Execution status
//	DELETE /api/v1/executions/{id}                - Cancel an execution
//	GET    /api/v1/executions/{id}/checkpoints    - Checkpoints for an execution
//	POST   /api/v1/agents                        - Spawn an agent
//	GET    /api/v1/agents                        - List agents
//	GET    /api/v1/agents/{id}                    - Agent info
//	POST   /api/v1/agents/{id}/send               - Write input to an agent
//	POST   /api/v1/agents/{id}/kill               - Kill an agent (also DELETE /agents/{id})
//	POST   /api/v1/agents/{id}/pause              - Pause an agent
//	POST   /api/v1/agents/{id}/resume             - Resume a paused agent
//	POST   /api/v1/agents/{id}/restart            - Kill and respawn an agent
//	POST   /api/v1/workflows                     - Save a workflow
//	GET    /api/v1/workflows                     - List workflows
//	GET    /api/v1/workflows/{id}                 - Load a workflow
//	PUT    /api/v1/workflows/{id}                 - Update a workflow
//	DELETE /api/v1/workflows/{id}                 - Delete a workflow
//	GET    /api/v1/checkpoints                   - List all checkpoints
//	POST   /api/v1/checkpoints/cleanup           - Prune old checkpoints
//	GET    /api/v1/history                       - List execution history
//	GET    /api/v1/history/{id}                   - One execution's history record
//	POST   /api/v1/projects                      - Bootstrap a project workspace
//	GET    /health, /health/live, /health/ready  - Health checks
//	GET    /metrics                              - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/nexusdag/nexus/pkg/checkpoint"
	"github.com/nexusdag/nexus/pkg/config"
	"github.com/nexusdag/nexus/pkg/engine"
	"github.com/nexusdag/nexus/pkg/history"
	"github.com/nexusdag/nexus/pkg/logging"
	"github.com/nexusdag/nexus/pkg/observer"
	"github.com/nexusdag/nexus/pkg/process"
	"github.com/nexusdag/nexus/pkg/resources"
	"github.com/nexusdag/nexus/pkg/server"
	"github.com/nexusdag/nexus/pkg/storage"
)

func main() {
	env := flag.String("env", "production", "configuration profile: development, production, or testing")
	agentBinary := flag.String("agent-binary", "", "external agent CLI to spawn (overrides the profile default)")
	maxConcurrentAgents := flag.Int("max-concurrent-agents", 0, "global concurrency cap on running agents (0 keeps the profile default)")
	logLevel := flag.String("log-level", "info", "minimum log level")
	logPretty := flag.Bool("log-pretty", false, "write human-readable logs instead of JSON")
	flag.Parse()

	cfg := loadConfig(*env)
	if *agentBinary != "" {
		cfg.AgentBinary = *agentBinary
	}
	if *maxConcurrentAgents > 0 {
		cfg.MaxConcurrentAgents = *maxConcurrentAgents
	}
	if port, ok := portFromEnv(); ok {
		cfg.HTTPBasePort = port
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  *logLevel,
		Output: os.Stdout,
		Pretty: *logPretty,
	})

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		logger.WithError(err).Error("failed to resolve cache directory")
		os.Exit(1)
	}

	checkpoints, err := checkpoint.New(filepath.Join(cacheDir, cfg.CheckpointDir))
	if err != nil {
		logger.WithError(err).Error("failed to initialize checkpoint manager")
		os.Exit(1)
	}

	historyMgr, err := history.New(filepath.Join(cacheDir, cfg.HistoryDir))
	if err != nil {
		logger.WithError(err).Error("failed to initialize history manager")
		os.Exit(1)
	}

	supervisor := process.New(cfg)
	resourceMgr := resources.New(cfg)
	observerMgr := observer.NewManager()
	observerMgr.Register(observer.NewConsoleObserverWithLogger(observerLoggerAdapter{logger}))

	eng := engine.New(cfg, supervisor, resourceMgr, checkpoints, observerMgr, logger)
	store := storage.NewInMemoryStore()

	srv := server.New(cfg, eng, supervisor, checkpoints, historyMgr, store, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	cleanupDone := make(chan struct{})
	go runAgentCleanup(supervisor, cfg.AgentCleanupInterval, cfg.AgentCleanupMaxAge, logger, cleanupDone)
	defer close(cleanupDone)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		logger.WithError(err).Error("server error")
		os.Exit(1)
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownWindow)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("shutdown error")
			os.Exit(1)
		}
	}
}

func loadConfig(profile string) *config.Config {
	switch profile {
	case "development":
		return config.Development()
	case "testing":
		return config.Testing()
	default:
		return config.Production()
	}
}

// runAgentCleanup periodically sweeps the supervisor's process table for
// terminal agents older than maxAge, until done is closed.
func runAgentCleanup(supervisor *process.Supervisor, interval, maxAge time.Duration, logger *logging.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed := supervisor.CleanupOld(maxAge); len(removed) > 0 {
				logger.WithField("count", len(removed)).Info("cleaned up stale agent processes")
			}
		case <-done:
			return
		}
	}
}

// portFromEnv reads the NEXUS_API_PORT override.
func portFromEnv() (int, bool) {
	raw := os.Getenv("NEXUS_API_PORT")
	if raw == "" {
		return 0, false
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 {
		return 0, false
	}
	return port, true
}

// observerLoggerAdapter bridges logging.Logger to observer.Logger, the
// narrow interface NewConsoleObserverWithLogger expects.
type observerLoggerAdapter struct {
	logger *logging.Logger
}

func (a observerLoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	a.logger.WithFields(fields).Debug(msg)
}

func (a observerLoggerAdapter) Info(msg string, fields map[string]interface{}) {
	a.logger.WithFields(fields).Info(msg)
}

func (a observerLoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	a.logger.WithFields(fields).Warn(msg)
}

func (a observerLoggerAdapter) Error(msg string, fields map[string]interface{}) {
	a.logger.WithFields(fields).Error(msg)
}
