package verification

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// ErrNotFound is returned by stores when a user has no persisted state.
var ErrNotFound = errors.New("verification state not found")

// Store persists the last successful verification per user. Pending attempts
// are in-process only and are not stored.
type Store interface {
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, userID string, s State) error
	Close() error
}

var validUserID = regexp.MustCompile(`^[a-zA-Z0-9._:@-]+$`)

func validateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user id must not be empty")
	}
	if !validUserID.MatchString(id) {
		return fmt.Errorf("user id %q contains invalid characters", id)
	}
	return nil
}

// MemoryStore keeps states in a map. Used by tests and single-process serving.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Load(_ context.Context, userID string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.states[userID]
	if !ok {
		return State{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, userID string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = s
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Open builds a store from a spec string:
//
//	memory
//	sqlite:<path>
//	redis:<addr>
func Open(ctx context.Context, spec string) (Store, error) {
	kind, arg, _ := strings.Cut(spec, ":")
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if arg == "" {
			return nil, fmt.Errorf("sqlite store requires a path")
		}
		return OpenSQLite(ctx, arg)
	case "redis":
		if arg == "" {
			return nil, fmt.Errorf("redis store requires an address")
		}
		return DialRedis(ctx, arg)
	default:
		return nil, fmt.Errorf("unknown verification store %q", kind)
	}
}
