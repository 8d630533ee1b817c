package verification

import (
	"fmt"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

// Method is how a verification was performed.
type Method string

const (
	MethodConfirm  Method = "confirm"  // tap or PIN confirmation
	MethodFace     Method = "face"     // liveness + face match
	MethodDocument Method = "document" // face match against an identity document
)

// State is the last successful verification of a user.
// A zero VerifiedAt means the user has never verified.
type State struct {
	Level      model.Level `json:"level" yaml:"level"`
	Method     Method      `json:"method,omitempty" yaml:"method,omitempty"`
	VerifiedAt time.Time   `json:"verified_at,omitempty" yaml:"verified_at,omitempty"`
}

// Verified reports whether the state records a completed verification.
func (s State) Verified() bool {
	return s.Level > model.LevelNone && !s.VerifiedAt.IsZero()
}

// FreshFor reports whether s satisfies required at now.
// The window is half-open: a check at exactly VerifiedAt+TTL is stale.
// Timestamps after now never count as fresh.
func (s State) FreshFor(required model.Level, now time.Time, f Freshness) bool {
	if required <= model.LevelNone {
		return true
	}
	if !s.Verified() || s.Level < required {
		return false
	}
	ttl := f.TTL(required)
	if ttl <= 0 || s.VerifiedAt.After(now) {
		return false
	}
	return now.Sub(s.VerifiedAt) < ttl
}

// Phase is the position of a tracker in Unverified → Pending → Verified.
type Phase string

const (
	PhaseUnverified Phase = "unverified"
	PhasePending    Phase = "pending"
	PhaseVerified   Phase = "verified"
)

// Attempt is a verification that was started but has no result yet.
type Attempt struct {
	Level  model.Level `json:"level"`
	Method Method      `json:"method"`
}

// Snapshot is a consistent read of a tracker.
type Snapshot struct {
	Phase    Phase    `json:"phase"`
	Pending  *Attempt `json:"pending,omitempty"`
	Verified State    `json:"verified"`
}

// Freshness is the per-required-level TTL table.
type Freshness struct {
	Confirm time.Duration `yaml:"level_1" json:"level_1"`
	Face    time.Duration `yaml:"level_2" json:"level_2"`
	Strong  time.Duration `yaml:"level_3" json:"level_3"`
}

// DefaultFreshness returns the built-in TTL table.
func DefaultFreshness() Freshness {
	return Freshness{
		Confirm: 10 * time.Minute,
		Face:    5 * time.Minute,
		Strong:  60 * time.Second,
	}
}

// TTL returns the window for a required level. Levels outside 1..3 get zero,
// which FreshFor treats as never fresh.
func (f Freshness) TTL(required model.Level) time.Duration {
	switch required {
	case model.LevelConfirm:
		return f.Confirm
	case model.LevelFace:
		return f.Face
	case model.LevelStrong:
		return f.Strong
	default:
		return 0
	}
}

// Validate rejects non-positive TTLs.
func (f Freshness) Validate() error {
	for _, l := range []model.Level{model.LevelConfirm, model.LevelFace, model.LevelStrong} {
		if f.TTL(l) <= 0 {
			return fmt.Errorf("%w: freshness ttl for level %d must be positive", model.ErrConfig, l)
		}
	}
	return nil
}
