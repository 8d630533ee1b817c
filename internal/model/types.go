package model

import (
	"fmt"
	"strings"
)

// Level is a biometric verification level. 0 means no verification required.
type Level int

const (
	LevelNone    Level = 0 // no verification
	LevelConfirm Level = 1 // explicit confirmation (tap / PIN)
	LevelFace    Level = 2 // face match
	LevelStrong  Level = 3 // face match + document
)

// MaxLevel is the highest verification level the engine knows about.
const MaxLevel = LevelStrong

// Valid reports whether the level is within 0..3.
func (l Level) Valid() bool {
	return l >= LevelNone && l <= MaxLevel
}

// MaxOf returns the highest of the given levels.
func MaxOf(levels ...Level) Level {
	max := LevelNone
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// Semaphore is the geofenced risk classification of a place.
type Semaphore string

const (
	Green  Semaphore = "green"
	Yellow Semaphore = "yellow"
	Red    Semaphore = "red"
)

// SemaphoreRank maps a semaphore to a comparable integer. Higher is more restrictive.
var SemaphoreRank = map[Semaphore]int{
	Green:  0,
	Yellow: 1,
	Red:    2,
}

// ParseSemaphore maps a string to a Semaphore. Fail-closed: unknown → error.
func ParseSemaphore(s string) (Semaphore, error) {
	switch Semaphore(strings.ToLower(strings.TrimSpace(s))) {
	case Green:
		return Green, nil
	case Yellow:
		return Yellow, nil
	case Red:
		return Red, nil
	default:
		return Red, fmt.Errorf("unknown semaphore state %q", s)
	}
}

// Raise returns the more restrictive of s and other.
func (s Semaphore) Raise(other Semaphore) Semaphore {
	if SemaphoreRank[other] > SemaphoreRank[s] {
		return other
	}
	return s
}

// Source is where an intent came from.
type Source string

const (
	SourceChip   Source = "chip"
	SourceSystem Source = "system"
	SourceVoice  Source = "voice"
)

// ImpactClass describes how consequential an action is.
type ImpactClass string

const (
	ImpactLow    ImpactClass = "low"
	ImpactMedium ImpactClass = "medium"
	ImpactHigh   ImpactClass = "high"
)

// ParseImpact maps a string to an ImpactClass. Empty means low.
func ParseImpact(s string) (ImpactClass, error) {
	switch ImpactClass(strings.ToLower(strings.TrimSpace(s))) {
	case "", ImpactLow:
		return ImpactLow, nil
	case ImpactMedium:
		return ImpactMedium, nil
	case ImpactHigh:
		return ImpactHigh, nil
	default:
		return ImpactHigh, fmt.Errorf("unknown impact class %q", s)
	}
}

// Intent is a structured user-action request. Created upstream, consumed once.
type Intent struct {
	ID      string         `json:"intent_id" yaml:"intent_id"`
	Payload map[string]any `json:"payload,omitempty" yaml:"payload,omitempty"`
	Source  Source         `json:"source,omitempty" yaml:"source,omitempty"`
}

// SuggestedAction is a follow-up the UI may offer alongside a decision.
type SuggestedAction struct {
	Type    string            `json:"type" yaml:"type"`
	Payload map[string]string `json:"payload,omitempty" yaml:"payload,omitempty"`
	Label   string            `json:"label" yaml:"label"`
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}
