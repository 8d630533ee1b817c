package verification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

type entry struct {
	writeMu sync.Mutex // serializes record+persist for one user
	tracker *Tracker
}

// Registry keys one Tracker per user and writes successful verifications
// through to a Store. Reads go through the store on every call so that
// verifications recorded by another process sharing the store are seen.
// Store I/O never happens under the registry-wide lock.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*entry
	store     Store
	freshness Freshness
}

// NewRegistry creates a Registry. A nil store means an in-memory store.
func NewRegistry(store Store, f Freshness) *Registry {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Registry{
		entries:   make(map[string]*entry),
		store:     store,
		freshness: f,
	}
}

// Freshness returns the TTL table trackers are built with.
func (r *Registry) Freshness() Freshness {
	return r.freshness
}

func (r *Registry) entry(userID string) (*entry, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		e = &entry{tracker: NewTracker(r.freshness, State{})}
		r.entries[userID] = e
	}
	return e, nil
}

// synced returns the user's entry with any newer persisted state adopted.
func (r *Registry) synced(ctx context.Context, userID string) (*entry, error) {
	e, err := r.entry(userID)
	if err != nil {
		return nil, err
	}
	stored, err := r.store.Load(ctx, userID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return nil, err
	default:
		e.tracker.Adopt(stored)
	}
	return e, nil
}

// Start records that a capture flow began for userID.
func (r *Registry) Start(ctx context.Context, userID string, level model.Level, method Method) error {
	e, err := r.entry(userID)
	if err != nil {
		return err
	}
	return e.tracker.StartVerification(level, method)
}

// Record completes an attempt and persists the verified state on success.
func (r *Registry) Record(ctx context.Context, userID string, success bool, level model.Level, method Method, now time.Time) (Snapshot, error) {
	e, err := r.synced(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	snap, err := e.tracker.RecordResult(success, level, method, now)
	if err != nil {
		return snap, err
	}
	if success {
		if err := r.store.Save(ctx, userID, snap.Verified); err != nil {
			return snap, fmt.Errorf("persist verification: %w", err)
		}
	}
	return snap, nil
}

// State returns the last successful verification for userID.
func (r *Registry) State(ctx context.Context, userID string) (State, error) {
	e, err := r.synced(ctx, userID)
	if err != nil {
		return State{}, err
	}
	return e.tracker.State(), nil
}

// Snapshot returns the full tracker view for userID.
func (r *Registry) Snapshot(ctx context.Context, userID string) (Snapshot, error) {
	e, err := r.synced(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	return e.tracker.Snapshot(), nil
}

// IsFresh reports whether userID currently satisfies required.
func (r *Registry) IsFresh(ctx context.Context, userID string, required model.Level, now time.Time) (bool, error) {
	e, err := r.synced(ctx, userID)
	if err != nil {
		return false, err
	}
	return e.tracker.IsFresh(required, now), nil
}

// Close closes the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}
