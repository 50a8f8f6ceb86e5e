// Package retry decides whether a failed node execution should be
// retried and how long to wait before the next attempt. It also declares
// the FallbackStrategy values; no function in the package selects or
// applies one.
//
// # Decision Precedence
//
// No-retry patterns ("authentication failed", "invalid api key",
// "permission denied", "not found") always win over a retry pattern
// match. Otherwise a recognized transient pattern (timeout, rate limit,
// connection reset, ...) triggers a retry, subject to the configured
// attempt budget.
//
// # Backoff
//
// Delay grows exponentially from config.Config's DefaultInitialDelay by
// DefaultBackoffFactor per attempt, capped at DefaultMaxDelay, with
// optional +/-25% jitter to avoid synchronized retries across nodes.
package retry
