package query

import (
	"math"
	"strings"
	"time"
)

// RetryPolicy controls how callers retry failed queries with exponential
// backoff. The core itself never retries: a failed assistant turn is the
// caller's to re-attempt, and this policy exists for those callers (the CLI
// uses it).
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns a RetryPolicy with sensible defaults:
// 3 attempts, 1s initial delay, 2x multiplier, 30s max delay.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		Multiplier:   2.0,
		MaxDelay:     30 * time.Second,
	}
}

// ShouldRetry reports whether the diagnostic describes a transient failure
// worth retrying at the given attempt count.
func (p *RetryPolicy) ShouldRetry(diagnostic string, attempt int) bool {
	if attempt > p.MaxAttempts {
		return false
	}
	return p.isRetryable(diagnostic)
}

// isRetryable classifies a failure diagnostic. Timeouts and connection
// problems are transient; validation, persistence, and auth failures are
// permanent. Unknown diagnostics default to retryable.
func (p *RetryPolicy) isRetryable(diagnostic string) bool {
	if diagnostic == "" {
		return false
	}
	msg := strings.ToLower(diagnostic)

	// Transient / retryable errors
	if strings.HasPrefix(msg, kindInferenceTimeout) ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") {
		return true
	}

	// Permanent / non-retryable errors. A persistence failure is the
	// daemon's local disk, not a flaky network hop.
	if strings.HasPrefix(msg, kindValidation) ||
		strings.HasPrefix(msg, kindPersistence) ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "forbidden") {
		return false
	}

	// Default: retryable
	return true
}

// NextDelay returns the backoff delay for the given attempt number (1-indexed).
// The delay is InitialDelay * Multiplier^(attempt-1), capped at MaxDelay.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Execute runs fn up to MaxAttempts times, sleeping between retries with
// exponential backoff. fn reports the failure diagnostic of each attempt
// (empty on success). It returns the final response's diagnostic, empty if
// an attempt succeeded.
func (p *RetryPolicy) Execute(fn func() string) string {
	var last string
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		last = fn()
		if last == "" {
			return ""
		}
		if !p.ShouldRetry(last, attempt) {
			return last
		}
		if attempt < p.MaxAttempts {
			time.Sleep(p.NextDelay(attempt))
		}
	}
	return last
}
