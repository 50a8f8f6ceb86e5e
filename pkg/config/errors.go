package config

import "errors"

// Sentinel errors for configuration validation.
var (
	ErrInvalidExecutionTime     = errors.New("invalid max execution time: must be non-negative")
	ErrInvalidNodeExecutionTime = errors.New("invalid max node execution time: must be non-negative")
	ErrInvalidPlannerTimeout    = errors.New("invalid planner timeout: must be non-negative")

	ErrInvalidBufferSize = errors.New("invalid output buffer size: must be positive")
	ErrInvalidChunkSize  = errors.New("invalid output chunk size: must be positive and not exceed buffer size")

	ErrInvalidConcurrency = errors.New("invalid max concurrent agents: must be positive")
	ErrInvalidRateLimit   = errors.New("invalid rate limit: capacity and refill rate must be positive")

	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")
	ErrInvalidBackoff     = errors.New("invalid backoff configuration: delays must be non-negative and ordered")

	ErrInvalidStateDir = errors.New("invalid checkpoint or history directory")
	ErrInvalidPort      = errors.New("invalid HTTP base port")
)
