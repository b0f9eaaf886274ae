// Package executor supervises agent iterations: building prompts, driving
// the agent subprocess with an idle timeout, classifying transcripts, and
// running the orchestration loop.
package executor

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures exponential backoff between failed attempts of the
// same task within one iteration.
type RetryPolicy struct {
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultRetryPolicy returns the standard backoff settings: three attempts,
// one second base, doubling, capped at a minute, with 10% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		BaseDelay:    time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Delay computes the backoff before the given attempt (1-indexed). The first
// attempt has no delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	multiplier := p.Multiplier
	if multiplier <= 1 {
		multiplier = 2.0
	}
	delay := float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt-2))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && delay > max {
		delay = max
	}
	if p.JitterFactor > 0 {
		jitter := delay * p.JitterFactor
		delay += (rand.Float64()*2 - 1) * jitter
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}
