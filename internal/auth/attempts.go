package auth

import (
	"sync"
	"time"
)

const (
	DefaultMaxAttempts  = 5
	DefaultLockDuration = 15 * time.Minute
)

// AttemptTracker keeps a process-local record of consecutive failed
// logins per identity. State is lost on restart, which resets lockouts;
// that fail-open tradeoff favors availability.
type AttemptTracker struct {
	maxAttempts  int
	lockDuration time.Duration
	now          Clock

	mu      sync.Mutex
	entries map[string]*attemptEntry
}

// attemptEntry carries its own lock so updates to one identity never
// block updates to another.
type attemptEntry struct {
	mu          sync.Mutex
	attempts    int
	lockedUntil time.Time
}

func NewAttemptTracker(maxAttempts int, lockDuration time.Duration, now Clock) *AttemptTracker {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if lockDuration <= 0 {
		lockDuration = DefaultLockDuration
	}
	if now == nil {
		now = SystemClock
	}

	return &AttemptTracker{
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
		now:          now,
		entries:      make(map[string]*attemptEntry),
	}
}

func (t *AttemptTracker) entry(email string) *attemptEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[email]
	if !ok {
		e = &attemptEntry{}
		t.entries[email] = e
	}
	return e
}

// RecordFailure counts a failed login; the attempt that reaches the
// maximum trips a lock.
func (t *AttemptTracker) RecordFailure(email string) {
	now := t.now()
	e := t.entry(email)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.lockedUntil.IsZero() && !now.Before(e.lockedUntil) {
		// expired lock: counting restarts fresh
		e.attempts = 0
		e.lockedUntil = time.Time{}
	}

	e.attempts++
	if e.attempts >= t.maxAttempts {
		e.lockedUntil = now.Add(t.lockDuration)
	}
}

// RecordSuccess discards the identity's record entirely.
func (t *AttemptTracker) RecordSuccess(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, email)
}

// IsBlocked reports whether the identity is locked out. A lock whose
// expiry has passed is discarded as a side effect.
func (t *AttemptTracker) IsBlocked(email string) bool {
	t.mu.Lock()
	e, ok := t.entries[email]
	t.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	lockedUntil := e.lockedUntil
	e.mu.Unlock()

	if lockedUntil.IsZero() {
		return false
	}
	if t.now().Before(lockedUntil) {
		return true
	}

	t.mu.Lock()
	delete(t.entries, email)
	t.mu.Unlock()
	return false
}

func (t *AttemptTracker) RemainingAttempts(email string) int {
	t.mu.Lock()
	e, ok := t.entries[email]
	t.mu.Unlock()
	if !ok {
		return t.maxAttempts
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	remaining := t.maxAttempts - e.attempts
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// LockedUntil reports the lock expiry; only meaningful while locked.
func (t *AttemptTracker) LockedUntil(email string) (time.Time, bool) {
	t.mu.Lock()
	e, ok := t.entries[email]
	t.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lockedUntil.IsZero() {
		return time.Time{}, false
	}
	return e.lockedUntil, true
}
