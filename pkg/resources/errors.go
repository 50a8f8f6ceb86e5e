package resources

import "errors"

var (
	// ErrRateLimited is returned when the token bucket has no tokens left.
	ErrRateLimited = errors.New("resources: rate limit exceeded")
	// ErrQueueFull is returned when QueueTask or Acquire finds the queue full.
	ErrQueueFull = errors.New("resources: task queue is full")
	// ErrTimeout is returned when Acquire's wait exceeds ResourceAcquireWait.
	ErrTimeout = errors.New("resources: timed out waiting for a permit")
	// ErrRoleLimitExceeded is returned when a role's concurrency cap is reached.
	ErrRoleLimitExceeded = errors.New("resources: per-role concurrency limit exceeded")
)
