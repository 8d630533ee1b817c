package model

import "strconv"

// Kind names the active variant of a Decision.
type Kind string

const (
	KindAllowed            Kind = "allowed"
	KindRequiresValidation Kind = "requires_validation"
	KindBlocked            Kind = "blocked"
)

// GenericBlockMessage is the only text shown to end users when a decision is
// blocked by an internal fault. The real cause stays in logs and audit.
const GenericBlockMessage = "No pudimos procesar esta acción. Intentá de nuevo más tarde."

// Decision is the engine outcome. Exactly one of Allowed, RequiresValidation
// or Blocked; the interface is sealed so no other variant can exist.
type Decision interface {
	Kind() Kind
	decision()
}

// Allowed permits the action. Severity reflects the zone and security overlays.
type Allowed struct {
	Message  string
	Actions  []SuggestedAction
	Severity Semaphore
}

// RequiresValidation asks the caller to obtain a fresh verification of at
// least Level and re-invoke the engine.
type RequiresValidation struct {
	Level  Level
	Reason string
}

// Blocked denies the action. Reason is safe to show to users; Cause carries
// the internal error for logs and audit and is never rendered.
type Blocked struct {
	Reason string
	Cause  error
}

func (Allowed) Kind() Kind            { return KindAllowed }
func (RequiresValidation) Kind() Kind { return KindRequiresValidation }
func (Blocked) Kind() Kind            { return KindBlocked }

func (Allowed) decision()            {}
func (RequiresValidation) decision() {}
func (Blocked) decision()            {}

// Fault builds a fail-closed Blocked decision for an internal error.
func Fault(cause error) Blocked {
	return Blocked{Reason: GenericBlockMessage, Cause: cause}
}

// Outcome is the flattened, serializable rendering of a Decision.
type Outcome struct {
	Allowed            bool              `json:"allowed"`
	RequiresValidation bool              `json:"requiresValidation"`
	RequiredLevel      *Level            `json:"requiredLevel,omitempty"`
	Blocked            bool              `json:"blocked"`
	Severity           Semaphore         `json:"severity"`
	Message            string            `json:"message"`
	Reason             string            `json:"reason,omitempty"`
	SuggestedActions   []SuggestedAction `json:"suggestedActions"`
}

// Render flattens a Decision for callers. A nil decision renders as a fault.
func Render(d Decision) Outcome {
	switch v := d.(type) {
	case Allowed:
		sev := v.Severity
		if sev == "" {
			sev = Green
		}
		actions := v.Actions
		if actions == nil {
			actions = []SuggestedAction{}
		}
		return Outcome{
			Allowed:          true,
			Severity:         sev,
			Message:          v.Message,
			SuggestedActions: actions,
		}
	case RequiresValidation:
		level := v.Level
		return Outcome{
			RequiresValidation: true,
			RequiredLevel:      &level,
			Severity:           Yellow,
			Message:            "Necesitamos verificar tu identidad para continuar.",
			Reason:             v.Reason,
			SuggestedActions: []SuggestedAction{{
				Type:    "verify",
				Payload: map[string]string{"level": strconv.Itoa(int(level))},
				Label:   "Verificar identidad",
			}},
		}
	case Blocked:
		reason := v.Reason
		if reason == "" {
			reason = GenericBlockMessage
		}
		return Outcome{
			Blocked:          true,
			Severity:         Red,
			Message:          reason,
			Reason:           reason,
			SuggestedActions: []SuggestedAction{},
		}
	default:
		return Render(Fault(nil))
	}
}
