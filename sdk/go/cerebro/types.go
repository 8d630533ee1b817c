package cerebro

import (
	"fmt"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

// Kind is the decision variant.
type Kind string

const (
	Allowed            Kind = Kind(model.KindAllowed)
	RequiresValidation Kind = Kind(model.KindRequiresValidation)
	Blocked            Kind = Kind(model.KindBlocked)
)

// Intent is what the user asked for.
type Intent struct {
	ID      string         // e.g. "wallet_transfer", "navigate.home"
	Source  string         // "chip", "system" or "voice"; empty means system
	Payload map[string]any // intent parameters, e.g. "amount", "target_role"
}

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// User is the context of the caller at decision time.
type User struct {
	ID   string
	Role string
	// VerifiedLevel and VerifiedAt override the tracked verification state.
	// Leave VerifiedLevel zero to use the tracker for ID.
	VerifiedLevel int
	VerifiedAt    time.Time
	Point         *Point
	Escudos       []string
	// Amount in guaraníes; nil falls back to the payload "amount".
	Amount *int64
	Impact string // "low", "medium" or "high"; empty means the intent default
}

// Amount returns a pointer to v, for User.Amount.
func Amount(v int64) *int64 { return &v }

// Action is a suggested follow-up the UI may render.
type Action struct {
	Type    string
	Label   string
	Payload map[string]string
}

// Result is a rendered decision.
type Result struct {
	DecisionID    string
	PolicyHash    string
	Kind          Kind
	Severity      string
	Message       string
	Reason        string
	RequiredLevel int
	Actions       []Action
}

// Allowed reports whether the decision permits the intent.
func (r Result) Allowed() bool {
	return r.Kind == Allowed
}

// BlockedError is returned by wrapped functions when the decision is not
// Allowed. Kind is Blocked or RequiresValidation.
type BlockedError struct {
	Intent Intent
	Result Result
}

func (e *BlockedError) Error() string {
	if e.Result.Kind == RequiresValidation {
		return fmt.Sprintf("cerebro: %s requires verification level %d", e.Intent.ID, e.Result.RequiredLevel)
	}
	return fmt.Sprintf("cerebro blocked %s: %s", e.Intent.ID, e.Result.Reason)
}

func toResult(decisionID, policyHash string, o model.Outcome) Result {
	r := Result{
		DecisionID: decisionID,
		PolicyHash: policyHash,
		Severity:   string(o.Severity),
		Message:    o.Message,
		Reason:     o.Reason,
	}
	switch {
	case o.Allowed:
		r.Kind = Allowed
	case o.RequiresValidation:
		r.Kind = RequiresValidation
	default:
		r.Kind = Blocked
	}
	if o.RequiredLevel != nil {
		r.RequiredLevel = int(*o.RequiredLevel)
	}
	for _, a := range o.SuggestedActions {
		r.Actions = append(r.Actions, Action{Type: a.Type, Label: a.Label, Payload: a.Payload})
	}
	return r
}
