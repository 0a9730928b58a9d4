// Package ratelimit throttles order submissions per user.
//
// The rule: within a trailing window at most MaxSubmissions submissions are
// accepted, and consecutive submissions must be at least MinInterval apart.
// Limiters are best-effort; concurrent submissions from the same user may be
// counted imprecisely.
package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Reason explains why a submission was rejected.
type Reason string

const (
	ReasonNone       Reason = ""
	ReasonWindowFull Reason = "too_many_submissions"
	ReasonTooSoon    Reason = "submitted_too_quickly"
)

// Decision is the outcome of one submission attempt.
type Decision struct {
	Allowed    bool
	Reason     Reason
	RetryAfter time.Duration
}

// Limiter decides whether a submission keyed by key may proceed at now.
// An accepted submission is recorded. A non-nil error means the limiter
// itself failed and no decision was made.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

// Policy holds the throttle parameters.
type Policy struct {
	Window         time.Duration
	MaxSubmissions int
	MinInterval    time.Duration
}

// DefaultPolicy allows five submissions per minute, three seconds apart.
var DefaultPolicy = Policy{
	Window:         60 * time.Second,
	MaxSubmissions: 5,
	MinInterval:    3 * time.Second,
}

// Validate reports a policy that cannot be enforced.
func (p Policy) Validate() error {
	if p.Window <= 0 {
		return errors.Errorf("rate limit window must be positive, got %s", p.Window)
	}
	if p.MaxSubmissions < 1 {
		return errors.Errorf("rate limit max submissions must be at least 1, got %d", p.MaxSubmissions)
	}
	if p.MinInterval < 0 {
		return errors.Errorf("rate limit min interval must not be negative, got %s", p.MinInterval)
	}
	return nil
}

// decide applies the policy to the timestamps already in the window, oldest
// first.
func (p Policy) decide(recent []time.Time, now time.Time) Decision {
	if len(recent) >= p.MaxSubmissions {
		return Decision{
			Reason:     ReasonWindowFull,
			RetryAfter: recent[len(recent)-p.MaxSubmissions].Add(p.Window).Sub(now),
		}
	}
	if n := len(recent); n > 0 {
		if gap := now.Sub(recent[n-1]); gap < p.MinInterval {
			return Decision{Reason: ReasonTooSoon, RetryAfter: p.MinInterval - gap}
		}
	}
	return Decision{Allowed: true}
}
