package service

import "time"

// LockoutDecision is the outcome of checking an account's login-security
// state before any password work happens.
type LockoutDecision int

const (
	// LockoutAllow lets the attempt proceed with the counters as they are.
	LockoutAllow LockoutDecision = iota
	// LockoutDeny refuses the attempt outright; the password is not checked.
	LockoutDeny
	// LockoutAllowReset lets the attempt proceed, but the caller must first
	// reset the failure counter and clear the expired lock.
	LockoutAllowReset
)

// LockoutPolicy decides whether a login attempt may proceed and when a
// failed attempt trips the lock. It holds no state; all inputs come from
// the account record and the caller's clock.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// Evaluate maps (failedAttempts, lockedUntil, now) to a decision. When the
// decision is LockoutDeny the second return value is the time remaining on
// the lock.
func (p LockoutPolicy) Evaluate(failedAttempts int, lockedUntil *time.Time, now time.Time) (LockoutDecision, time.Duration) {
	if lockedUntil == nil {
		return LockoutAllow, 0
	}
	if now.Before(*lockedUntil) {
		return LockoutDeny, lockedUntil.Sub(now)
	}
	return LockoutAllowReset, 0
}

// RecordFailure returns the incremented failure count and, when the count
// reaches the threshold, the timestamp the lock should run until.
func (p LockoutPolicy) RecordFailure(failedAttempts int, now time.Time) (int, *time.Time) {
	count := failedAttempts + 1
	if count >= p.Threshold {
		until := now.Add(p.Duration)
		return count, &until
	}
	return count, nil
}

// RemainingMinutes rounds a lock remainder up to whole minutes for the
// user-facing message; anything under a minute reports as one.
func RemainingMinutes(remaining time.Duration) int {
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
