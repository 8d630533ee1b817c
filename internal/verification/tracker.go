package verification

import (
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

// Tracker holds one user's verification state. Safe for concurrent use; every
// read observes a single consistent snapshot.
type Tracker struct {
	mu        sync.RWMutex
	verified  State
	pending   *Attempt
	freshness Freshness
}

// NewTracker creates a tracker seeded with a previously persisted state.
func NewTracker(f Freshness, initial State) *Tracker {
	return &Tracker{verified: initial, freshness: f}
}

// StartVerification moves the tracker to Pending.
// A new attempt replaces an older pending one.
func (t *Tracker) StartVerification(level model.Level, method Method) error {
	if level <= model.LevelNone || !level.Valid() {
		return fmt.Errorf("invalid verification level %d", level)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = &Attempt{Level: level, Method: method}
	return nil
}

// RecordResult completes an attempt. Success overwrites the verified state
// with (level, now), including level-1 confirmations. Failure clears the
// pending attempt and keeps the previous verified state.
func (t *Tracker) RecordResult(success bool, level model.Level, method Method, now time.Time) (Snapshot, error) {
	if success && (level <= model.LevelNone || !level.Valid()) {
		return t.Snapshot(), fmt.Errorf("invalid verification level %d", level)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = nil
	if success {
		t.verified = State{Level: level, Method: method, VerifiedAt: now}
	}
	return t.snapshotLocked(), nil
}

// Adopt replaces the verified state with s when s is newer. Used to pick up
// verifications recorded by other processes sharing the store.
func (t *Tracker) Adopt(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s.VerifiedAt.After(t.verified.VerifiedAt) {
		t.verified = s
	}
}

// IsFresh reports whether the current state satisfies required at now.
func (t *Tracker) IsFresh(required model.Level, now time.Time) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.verified.FreshFor(required, now, t.freshness)
}

// State returns the last successful verification.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.verified
}

// Snapshot returns phase, pending attempt, and verified state read together.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() Snapshot {
	s := Snapshot{Phase: PhaseUnverified, Verified: t.verified}
	if t.verified.Verified() {
		s.Phase = PhaseVerified
	}
	if t.pending != nil {
		p := *t.pending
		s.Pending = &p
		s.Phase = PhasePending
	}
	return s
}
