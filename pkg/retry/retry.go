// Package retry implements the backoff/retry decision engine used when a
// node's agent invocation fails: whether to retry, how long to wait, and
// when to give up.
package retry

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/nexusdag/nexus/pkg/config"
)

// defaultRetryPatterns are error substrings that should trigger a retry
// unless a no-retry pattern takes precedence.
var defaultRetryPatterns = []string{
	"rate limit",
	"connection reset",
	"temporary failure",
	"service unavailable",
	"timeout",
	"etimedout",
	"econnreset",
}

// defaultNoRetryPatterns are error substrings that always win over a
// retry pattern match.
var defaultNoRetryPatterns = []string{
	"authentication failed",
	"invalid api key",
	"permission denied",
	"not found",
}

// Config controls which errors a node's retry state treats as
// retryable. It is the per-execution override surface for the fixed
// pattern lists above: a caller passing a custom Config through
// engine.Options.RetryConfig (wired from the execute_enhanced HTTP
// request's retry_config field) replaces the defaults entirely rather
// than merging with them.
type Config struct {
	// RetryOnTimeout additionally matches "timeout" substrings beyond
	// whatever is listed in RetryPatterns.
	RetryOnTimeout bool
	// RetryOnAPIError additionally matches "api"/"rate limit"
	// substrings beyond whatever is listed in RetryPatterns.
	RetryOnAPIError bool
	// RetryPatterns are error substrings that trigger a retry.
	RetryPatterns []string
	// NoRetryPatterns are error substrings that always win over a
	// RetryPatterns match.
	NoRetryPatterns []string
}

// DefaultConfig returns the retry pattern lists every execution used
// before RetryConfig existed as an override.
func DefaultConfig() Config {
	return Config{
		RetryOnTimeout:  true,
		RetryOnAPIError: true,
		RetryPatterns:   append([]string(nil), defaultRetryPatterns...),
		NoRetryPatterns: append([]string(nil), defaultNoRetryPatterns...),
	}
}

// Decision is the outcome of asking whether a failed attempt should be
// retried.
type Decision struct {
	Retry     bool
	Exhausted bool
	Delay     time.Duration
	Attempt   int
	Reason    string
}

// State tracks retry progress for one node's execution across however
// many attempts it takes.
type State struct {
	cfg            *config.Config
	retryCfg       Config
	currentAttempt int
	startedAt      time.Time
}

// NewState creates retry tracking state seeded from cfg's backoff
// defaults and retryCfg's retryability rules, optionally overridden
// per-node by maxAttempts (0 uses the config default).
func NewState(cfg *config.Config, retryCfg Config, maxAttemptsOverride int) *State {
	s := &State{cfg: cfg, retryCfg: retryCfg, startedAt: time.Now()}
	if maxAttemptsOverride > 0 {
		clone := *cfg
		clone.DefaultMaxAttempts = maxAttemptsOverride
		s.cfg = &clone
	}
	return s
}

// CurrentAttempt returns the number of attempts made so far.
func (s *State) CurrentAttempt() int {
	return s.currentAttempt
}

// Elapsed returns the time since the state was created.
func (s *State) Elapsed() time.Duration {
	return time.Since(s.startedAt)
}

// ShouldRetry decides whether to retry after an error. It counts the
// attempt and checks the attempt budget first, then no-retry patterns
// (they always win over a retry pattern match), then retry patterns.
func (s *State) ShouldRetry(errMsg string) Decision {
	s.currentAttempt++

	if s.currentAttempt > s.cfg.DefaultMaxAttempts {
		return Decision{Exhausted: true, Attempt: s.currentAttempt, Reason: "all retry attempts exhausted"}
	}

	lower := strings.ToLower(errMsg)
	for _, pattern := range s.retryCfg.NoRetryPatterns {
		if strings.Contains(lower, pattern) {
			return Decision{Retry: false, Attempt: s.currentAttempt, Reason: "error matches no-retry pattern: " + pattern}
		}
	}

	matched := false
	for _, pattern := range s.retryCfg.RetryPatterns {
		if strings.Contains(lower, pattern) {
			matched = true
			break
		}
	}
	if s.retryCfg.RetryOnTimeout && strings.Contains(lower, "timeout") {
		matched = true
	}
	if s.retryCfg.RetryOnAPIError && (strings.Contains(lower, "api") || strings.Contains(lower, "rate limit")) {
		matched = true
	}
	if !matched {
		return Decision{Retry: false, Attempt: s.currentAttempt, Reason: "error does not match any retry pattern"}
	}

	delay := s.calculateDelay()
	return Decision{Retry: true, Delay: delay, Attempt: s.currentAttempt, Reason: "retrying after backoff"}
}

// calculateDelay applies exponential backoff capped at DefaultMaxDelay,
// with optional +/-25% jitter to avoid a thundering herd of retries.
func (s *State) calculateDelay() time.Duration {
	base := float64(s.cfg.DefaultInitialDelay)
	multiplier := math.Pow(s.cfg.DefaultBackoffFactor, float64(s.currentAttempt-1))
	delay := time.Duration(base * multiplier)

	if delay > s.cfg.DefaultMaxDelay {
		delay = s.cfg.DefaultMaxDelay
	}

	if s.cfg.DefaultJitter && delay > 0 {
		jitterRange := delay / 4
		jitter := time.Duration(rand.Int63n(int64(jitterRange*2) + 1))
		delay = delay - jitterRange + jitter
		if delay < 0 {
			delay = 0
		}
	}

	return delay
}

// FallbackStrategy names what to do once retries are exhausted or an
// error is explicitly non-retryable.
type FallbackStrategy string

const (
	FallbackSkip                 FallbackStrategy = "skip"
	FallbackUseDefault           FallbackStrategy = "use_default"
	FallbackAlternativeAgent     FallbackStrategy = "alternative_agent"
	FallbackPauseForIntervention FallbackStrategy = "pause_for_intervention"
	FallbackFailWorkflow         FallbackStrategy = "fail_workflow"
)

// Fallback describes the fallback action to take for a node once its
// retries are exhausted.
type Fallback struct {
	Strategy          FallbackStrategy
	DefaultValue      interface{}
	AlternativeRole   string
	AlternativeSystem string
}

