package session

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
)

// Default lockout policy.
const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 5 * time.Minute
)

// Lockout counts consecutive failed logins. Reaching MaxAttempts blocks
// further attempts for the cool-down, measured from that failure. A success
// resets the counter.
//
// The counter is not reset when the cool-down ends, so a failure right after
// it blocks again.
type Lockout struct {
	mu          sync.Mutex
	maxAttempts int
	cooldown    time.Duration
	now         func() time.Time

	failures    int
	lockedUntil time.Time
}

// NewLockout builds a policy. Non-positive values fall back to the defaults;
// a nil clock means time.Now.
func NewLockout(maxAttempts int, cooldown time.Duration, now func() time.Time) *Lockout {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if cooldown <= 0 {
		cooldown = DefaultLockoutDuration
	}
	if now == nil {
		now = time.Now
	}
	return &Lockout{maxAttempts: maxAttempts, cooldown: cooldown, now: now}
}

// Check returns a LockedError while the cool-down is running.
func (l *Lockout) Check() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if remaining := l.lockedUntil.Sub(l.now()); remaining > 0 {
		return &LockedError{Remaining: remaining}
	}
	return nil
}

// Fail records a failed attempt and returns a LockedError if it started a
// cool-down.
func (l *Lockout) Fail() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures++
	if l.failures >= l.maxAttempts {
		l.lockedUntil = l.now().Add(l.cooldown)
		return &LockedError{Remaining: l.cooldown}
	}
	return nil
}

// Succeed clears the counter and any cool-down.
func (l *Lockout) Succeed() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.failures = 0
	l.lockedUntil = time.Time{}
}

// Failures returns the current consecutive failure count.
func (l *Lockout) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}

// LockedError is returned while attempts are blocked.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	secs := int(math.Ceil(e.Remaining.Seconds()))
	return fmt.Sprintf("locked, try again in %d seconds", secs)
}

func (e *LockedError) Is(target error) bool { return target == common.ErrLocked }
