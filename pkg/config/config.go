package config

import "time"

// Config holds execution-core configuration for NEXUS.
// All configuration options are centralized here for easy management and validation.
type Config struct {
	// Execution limits
	MaxExecutionTime     time.Duration // Maximum time for an entire workflow execution
	MaxNodeExecutionTime time.Duration // Maximum time a single node/agent may run before AgentTimeout
	PlannerTimeout       time.Duration // Hard ceiling for planner-mode plan generation

	// Process / PTY supervisor
	AgentBinary          string        // Path or name of the external agent CLI to spawn
	AgentStartupGrace    time.Duration // Grace period after spawn before the process is considered alive
	OutputBufferBytes    int           // Rolling per-agent output buffer size (bytes)
	OutputChunkBytes     int           // PTY read chunk size (bytes)
	GracefulKillWait     time.Duration // Wait between SIGTERM and SIGKILL on KillGraceful
	AgentCleanupMaxAge   time.Duration // How long a terminal agent process stays tracked before CleanupOld drops it
	AgentCleanupInterval time.Duration // How often nexusd sweeps terminal agent processes via CleanupOld

	// Resource manager defaults
	MaxConcurrentAgents int           // Global semaphore capacity
	MaxPerRole          int           // Per-role concurrency cap (0 = unlimited)
	RateLimitCapacity   int           // Token-bucket capacity
	RateLimitRefillRate float64       // Tokens refilled per second
	ResourceAcquireWait time.Duration // Timeout waiting on the resource manager

	// Retry defaults
	DefaultMaxAttempts   int           // Default max retry attempts
	DefaultInitialDelay  time.Duration // Default initial backoff delay
	DefaultMaxDelay      time.Duration // Default backoff ceiling
	DefaultBackoffFactor float64       // Default exponential backoff multiplier
	DefaultJitter        bool          // Whether to apply +/-25% jitter to computed delays

	// Checkpoint / history
	CheckpointDir         string // Directory for checkpoint JSON files
	HistoryDir            string // Directory for execution history JSON files
	CheckpointKeepPerExec int    // Checkpoints retained per execution on cleanup

	// HTTP surface
	HTTPAddress        string // Bind address, typically loopback
	HTTPBasePort       int    // First port tried; falls back to the next 9 on conflict
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPShutdownWindow time.Duration
	EnableCORS         bool
}

// Default returns a Config with secure, production-ready default values.
func Default() *Config {
	return &Config{
		MaxExecutionTime:     30 * time.Minute,
		MaxNodeExecutionTime: 10 * time.Minute,
		PlannerTimeout:       5 * time.Minute,

		AgentBinary:          "claude",
		AgentStartupGrace:    2 * time.Second,
		OutputBufferBytes:    1 << 20, // 1MB rolling buffer
		OutputChunkBytes:     4096,
		GracefulKillWait:     5 * time.Second,
		AgentCleanupMaxAge:   30 * time.Minute,
		AgentCleanupInterval: 5 * time.Minute,

		MaxConcurrentAgents: 4,
		MaxPerRole:          0, // unlimited
		RateLimitCapacity:   10,
		RateLimitRefillRate: 1.0,
		ResourceAcquireWait: 30 * time.Second,

		DefaultMaxAttempts:   3,
		DefaultInitialDelay:  1 * time.Second,
		DefaultMaxDelay:      30 * time.Second,
		DefaultBackoffFactor: 2.0,
		DefaultJitter:        true,

		CheckpointDir:         "nexus/checkpoints",
		HistoryDir:            "nexus/history",
		CheckpointKeepPerExec: 10,

		HTTPAddress:        "127.0.0.1",
		HTTPBasePort:       9999,
		HTTPReadTimeout:    15 * time.Second,
		HTTPWriteTimeout:   15 * time.Second,
		HTTPShutdownWindow: 10 * time.Second,
		EnableCORS:         true,
	}
}

// Development returns a Config tuned for local development with relaxed limits.
func Development() *Config {
	cfg := Default()
	cfg.MaxExecutionTime = time.Hour
	cfg.MaxConcurrentAgents = 8
	return cfg
}

// Production returns a Config tuned for unattended production runs.
func Production() *Config {
	cfg := Default()
	cfg.MaxConcurrentAgents = 4
	cfg.GracefulKillWait = 10 * time.Second
	return cfg
}

// Testing returns a Config with minimal timeouts suitable for fast test runs.
func Testing() *Config {
	cfg := Default()
	cfg.MaxExecutionTime = 10 * time.Second
	cfg.MaxNodeExecutionTime = 2 * time.Second
	cfg.PlannerTimeout = 2 * time.Second
	cfg.AgentStartupGrace = 10 * time.Millisecond
	cfg.GracefulKillWait = 50 * time.Millisecond
	cfg.ResourceAcquireWait = time.Second
	cfg.AgentCleanupMaxAge = 100 * time.Millisecond
	cfg.AgentCleanupInterval = 20 * time.Millisecond
	cfg.HTTPBasePort = 19999
	return cfg
}

// Validate checks if the configuration values are internally consistent.
func (c *Config) Validate() error {
	if c.MaxExecutionTime < 0 {
		return ErrInvalidExecutionTime
	}
	if c.MaxNodeExecutionTime < 0 {
		return ErrInvalidNodeExecutionTime
	}
	if c.PlannerTimeout < 0 {
		return ErrInvalidPlannerTimeout
	}
	if c.OutputBufferBytes <= 0 {
		return ErrInvalidBufferSize
	}
	if c.OutputChunkBytes <= 0 || c.OutputChunkBytes > c.OutputBufferBytes {
		return ErrInvalidChunkSize
	}
	if c.MaxConcurrentAgents <= 0 {
		return ErrInvalidConcurrency
	}
	if c.RateLimitCapacity <= 0 || c.RateLimitRefillRate <= 0 {
		return ErrInvalidRateLimit
	}
	if c.DefaultMaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	if c.DefaultInitialDelay < 0 || c.DefaultMaxDelay < c.DefaultInitialDelay {
		return ErrInvalidBackoff
	}
	if c.CheckpointDir == "" || c.HistoryDir == "" {
		return ErrInvalidStateDir
	}
	if c.HTTPBasePort <= 0 || c.HTTPBasePort > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
