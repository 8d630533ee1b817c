package escalation

import (
	"fmt"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

// Default thresholds in guaraníes.
const (
	DefaultMediumThreshold int64 = 200_000
	DefaultHighThreshold   int64 = 1_000_000
)

// Thresholds are the monetary boundaries for escalation.
type Thresholds struct {
	Medium int64 `yaml:"medium" json:"medium"`
	High   int64 `yaml:"high" json:"high"`
}

// DefaultSensitiveRoles are roles whose medium-impact spending always escalates.
func DefaultSensitiveRoles() []role.Role {
	return []role.Role{role.Capeto, role.Mbarete}
}

// Result is the escalation verdict for one decision call.
type Result struct {
	Escalate bool        `json:"escalate"`
	MinLevel model.Level `json:"min_level"`
	Reason   string      `json:"reason"`
	Rule     string      `json:"rule"`
}

// Policy evaluates ordered escalation rules. Immutable after New.
type Policy struct {
	thresholds Thresholds
	sensitive  map[role.Role]bool
}

// New validates thresholds and builds a Policy. Negative or inverted
// thresholds are fatal configuration errors.
func New(t Thresholds, sensitiveRoles []role.Role) (*Policy, error) {
	if t.Medium < 0 || t.High < 0 {
		return nil, fmt.Errorf("%w: negative threshold (medium=%d high=%d)",
			model.ErrEscalationMisconfigured, t.Medium, t.High)
	}
	if t.Medium > t.High {
		return nil, fmt.Errorf("%w: medium threshold %d exceeds high threshold %d",
			model.ErrEscalationMisconfigured, t.Medium, t.High)
	}

	sensitive := make(map[role.Role]bool, len(sensitiveRoles))
	for _, r := range sensitiveRoles {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: unknown sensitive role %s", model.ErrEscalationMisconfigured, r)
		}
		sensitive[r] = true
	}

	return &Policy{thresholds: t, sensitive: sensitive}, nil
}

// Default returns the built-in policy.
func Default() *Policy {
	p, err := New(Thresholds{Medium: DefaultMediumThreshold, High: DefaultHighThreshold}, DefaultSensitiveRoles())
	if err != nil {
		panic(err) // built-in constants are valid
	}
	return p
}

// Thresholds returns the configured thresholds.
func (p *Policy) Thresholds() Thresholds {
	return p.thresholds
}

// Evaluate applies the rules in order; first match wins.
//
// Rule order (must not be changed, later rules assume earlier ones missed):
//  1. high impact
//  2. amount >= high threshold
//  3. amount >= medium threshold with medium impact
//  4. sensitive role spending anything with medium impact
//  5. no escalation
func (p *Policy) Evaluate(amount int64, r role.Role, impact model.ImpactClass) Result {
	switch {
	case impact == model.ImpactHigh:
		return Result{
			Escalate: true,
			MinLevel: model.LevelFace,
			Reason:   "acción de alto impacto",
			Rule:     "impact.high",
		}
	case amount >= p.thresholds.High:
		return Result{
			Escalate: true,
			MinLevel: model.LevelFace,
			Reason:   fmt.Sprintf("monto igual o superior a %d Gs.", p.thresholds.High),
			Rule:     "amount.high",
		}
	case amount >= p.thresholds.Medium && impact == model.ImpactMedium:
		return Result{
			Escalate: true,
			MinLevel: model.LevelConfirm,
			Reason:   fmt.Sprintf("monto igual o superior a %d Gs.", p.thresholds.Medium),
			Rule:     "amount.medium",
		}
	case p.sensitive[r] && amount > 0 && impact == model.ImpactMedium:
		return Result{
			Escalate: true,
			MinLevel: model.LevelConfirm,
			Reason:   fmt.Sprintf("rol %s con movimiento de dinero", r),
			Rule:     "role.sensitive",
		}
	default:
		return Result{MinLevel: model.LevelNone, Rule: "none"}
	}
}
