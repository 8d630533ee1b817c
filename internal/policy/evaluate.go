package policy

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/cerebro/internal/escalation"
	"github.com/ppiankov/cerebro/internal/escudo"
	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
	"github.com/ppiankov/cerebro/internal/verification"
	"github.com/ppiankov/cerebro/internal/zone"
)

// User-facing block reasons.
const (
	ReasonRoleNotPermitted = "Tu rol no permite esta acción."
	ReasonHireNotPermitted = "Tu rol no puede contratar a este perfil."
	ReasonDailyLimit       = "Superaste el límite diario de tu billetera."
)

// Context is everything the caller knows about the user at decision time.
type Context struct {
	UserID        string
	Role          role.Role
	Verification  verification.State
	Point         *model.GeoPoint
	ActiveEscudos []string
	// Amount in guaraníes. Nil falls back to the intent payload "amount".
	Amount *int64
	// Impact; empty means the intent's default impact.
	Impact model.ImpactClass
	// PeriodTransferred is the ledger total for the current day.
	PeriodTransferred int64
}

// Request is one decision call.
type Request struct {
	Intent  model.Intent
	Context Context
}

// Step names the pipeline stage that produced the decision.
type Step string

const (
	StepFault      Step = "fault"
	StepRole       Step = "role"
	StepHire       Step = "hire"
	StepZone       Step = "zone"
	StepDailyLimit Step = "daily_limit"
	StepFreshness  Step = "freshness"
	StepAllowed    Step = "allowed"
)

// Evaluation is a decision plus the intermediate facts used to reach it, for
// logs and audit. Only Decision is meant for end users.
type Evaluation struct {
	Decision       model.Decision
	Step           Step
	Zone           zone.Resolution
	Escalation     escalation.Result
	Amount         int64
	Impact         model.ImpactClass
	RequiredLevel  model.Level
	AppliedEscudos []string
	UnknownEscudos []string
}

// Engine combines the role catalog, zone resolver, escalation policy,
// freshness table and escudo catalog. Immutable and safe for concurrent use.
type Engine struct {
	resolver   *zone.Resolver
	escalation *escalation.Policy
	escudos    *escudo.Catalog
	freshness  verification.Freshness
	sensitive  map[string]bool
}

// NewEngine validates cfg and builds an Engine. Any error here is fatal at
// startup; nothing is served from a config that does not build.
func NewEngine(cfg *PolicyConfig) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil policy config", model.ErrConfig)
	}
	if err := role.Validate(); err != nil {
		return nil, err
	}

	sensitiveRoles := make([]role.Role, 0, len(cfg.Escalation.SensitiveRoles))
	for _, name := range cfg.Escalation.SensitiveRoles {
		r, err := role.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sensitive role: %v", model.ErrEscalationMisconfigured, err)
		}
		sensitiveRoles = append(sensitiveRoles, r)
	}
	esc, err := escalation.New(escalation.Thresholds{
		Medium: cfg.Escalation.MediumThreshold,
		High:   cfg.Escalation.HighThreshold,
	}, sensitiveRoles)
	if err != nil {
		return nil, err
	}

	if err := cfg.Freshness.Validate(); err != nil {
		return nil, err
	}

	resolver, err := zone.New(cfg.Zones.Territories, cfg.Zones.UncoveredDefault)
	if err != nil {
		return nil, err
	}
	if len(cfg.Zones.Overrides) > 0 {
		if resolver, err = resolver.WithOverrides(cfg.Zones.Overrides); err != nil {
			return nil, err
		}
	}

	sensitive := make(map[string]bool, len(cfg.SensitiveIntents))
	for _, id := range cfg.SensitiveIntents {
		if !intent.Known(id) {
			return nil, fmt.Errorf("%w: sensitive intent %q", model.ErrUnknownIntent, id)
		}
		sensitive[id] = true
	}

	entries := make([]escudo.Config, 0, len(cfg.Escudos))
	for _, s := range cfg.Escudos {
		e, err := s.toEscudo()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	catalog, err := escudo.New(entries)
	if err != nil {
		return nil, err
	}

	return &Engine{
		resolver:   resolver,
		escalation: esc,
		escudos:    catalog,
		freshness:  cfg.Freshness,
		sensitive:  sensitive,
	}, nil
}

// Resolver returns the zone resolver the engine uses.
func (e *Engine) Resolver() *zone.Resolver { return e.resolver }

// Escudos returns the escudo catalog.
func (e *Engine) Escudos() *escudo.Catalog { return e.escudos }

// Freshness returns the TTL table.
func (e *Engine) Freshness() verification.Freshness { return e.freshness }

// Sensitive reports whether an intent is blocked in red zones.
func (e *Engine) Sensitive(intentID string) bool { return e.sensitive[intentID] }

// Decide is Evaluate without the trace.
func (e *Engine) Decide(req Request, now time.Time) model.Decision {
	return e.Evaluate(req, now).Decision
}

// Evaluate runs the decision pipeline for one request.
//
// Evaluation order (must not be changed):
//  1. Role permission: disallowed intents stop here, before any zone or
//     escalation detail is computed.
//  2. Zone: sensitive intents are blocked in red zones.
//  3. Escalation, then the daily wallet limit for transfers.
//  4. Required level = max(role level, yellow ? 1 : 0, escalation level).
//  5. Freshness: stale or insufficient verification requires validation.
//  6. Allowed with the intent's default copy.
//  7. Escudos, which only ever embellish an Allowed.
//
// Any internal fault fails closed to Blocked with the generic message.
func (e *Engine) Evaluate(req Request, now time.Time) Evaluation {
	in, ctx := req.Intent, req.Context

	// Step 1: role permission
	behavior, err := role.Lookup(ctx.Role)
	if err != nil {
		return fault(err)
	}
	if !role.IntentAllowed(ctx.Role, in.ID) {
		return Evaluation{
			Decision: model.Blocked{Reason: ReasonRoleNotPermitted},
			Step:     StepRole,
		}
	}
	if in.ID == intent.HireRequest {
		if ev, blocked := checkHire(ctx.Role, in); blocked {
			return ev
		}
	}

	// Step 2: zone
	res := zone.Resolution{State: model.Green}
	if ctx.Point != nil {
		res, err = e.resolver.Resolve(*ctx.Point)
		if err != nil {
			ev := fault(err)
			ev.Zone = res
			return ev
		}
	}
	if res.State == model.Red && e.sensitive[in.ID] {
		return Evaluation{
			Decision: model.Blocked{Reason: res.Reason},
			Step:     StepZone,
			Zone:     res,
		}
	}

	// Step 3: escalation
	amount, impact, err := escalationInputs(in, ctx)
	if err != nil {
		ev := fault(err)
		ev.Zone = res
		return ev
	}
	total := amount + ctx.PeriodTransferred
	esc := e.escalation.Evaluate(total, ctx.Role, impact)

	ev := Evaluation{
		Zone:       res,
		Escalation: esc,
		Amount:     amount,
		Impact:     impact,
	}

	if in.ID == intent.WalletTransfer && behavior.WalletDailyLimit > 0 && total > behavior.WalletDailyLimit {
		ev.Decision = model.Blocked{Reason: ReasonDailyLimit}
		ev.Step = StepDailyLimit
		return ev
	}

	// Step 4: required level
	zoneLevel := model.LevelNone
	if res.State == model.Yellow {
		zoneLevel = model.LevelConfirm
	}
	ev.RequiredLevel = model.MaxOf(behavior.BiometricLevelRequired, zoneLevel, esc.MinLevel)

	// Step 5: freshness
	if ev.RequiredLevel > model.LevelNone && !ctx.Verification.FreshFor(ev.RequiredLevel, now, e.freshness) {
		ev.Decision = model.RequiresValidation{
			Level:  ev.RequiredLevel,
			Reason: validationReason(ev.RequiredLevel, behavior.BiometricLevelRequired, zoneLevel, esc),
		}
		ev.Step = StepFreshness
		return ev
	}

	// Step 6: base decision
	resp, err := intent.DefaultResponse(in.ID)
	if err != nil {
		f := fault(err)
		f.Zone = res
		return f
	}
	base := model.Allowed{Message: resp.Message, Actions: resp.Actions, Severity: res.State}

	// Step 7: escudos
	for _, c := range e.escudos.Active(ctx.ActiveEscudos, ctx.Role, res.State) {
		ev.AppliedEscudos = append(ev.AppliedEscudos, c.ID)
	}
	ev.UnknownEscudos = e.escudos.Unknown(ctx.ActiveEscudos)
	ev.Decision = e.escudos.Apply(base, ctx.ActiveEscudos, ctx.Role, res.State)
	ev.Step = StepAllowed
	return ev
}

func fault(err error) Evaluation {
	return Evaluation{Decision: model.Fault(err), Step: StepFault}
}

func checkHire(requester role.Role, in model.Intent) (Evaluation, bool) {
	target, err := role.ParseRole(intent.PayloadString(in, "target_role"))
	if err != nil || !role.CanHire(requester, target) {
		return Evaluation{
			Decision: model.Blocked{Reason: ReasonHireNotPermitted},
			Step:     StepHire,
		}, true
	}
	return Evaluation{}, false
}

var (
	errNegativeAmount = errors.New("negative amount")
	errAmountOverflow = errors.New("amount overflows period total")
)

func escalationInputs(in model.Intent, ctx Context) (int64, model.ImpactClass, error) {
	var amount int64
	switch {
	case ctx.Amount != nil:
		amount = *ctx.Amount
	default:
		if _, present := in.Payload["amount"]; present {
			a, ok := intent.PayloadAmount(in, "amount")
			if !ok {
				return 0, "", fmt.Errorf("%w: malformed payload amount", model.ErrConfig)
			}
			amount = a
		}
	}
	if amount < 0 || ctx.PeriodTransferred < 0 {
		return 0, "", errNegativeAmount
	}
	if amount > math.MaxInt64-ctx.PeriodTransferred {
		return 0, "", errAmountOverflow
	}

	impact := ctx.Impact
	switch impact {
	case "":
		impact = intent.DefaultImpact(in.ID)
	case model.ImpactLow, model.ImpactMedium, model.ImpactHigh:
	default:
		return 0, "", fmt.Errorf("%w: impact class %q", model.ErrConfig, impact)
	}
	return amount, impact, nil
}

func validationReason(required, roleLevel, zoneLevel model.Level, esc escalation.Result) string {
	switch {
	case esc.Escalate && esc.MinLevel == required:
		return fmt.Sprintf("Verificación nivel %d requerida: %s.", required, esc.Reason)
	case zoneLevel == required && roleLevel < required:
		return fmt.Sprintf("Verificación nivel %d requerida: estás en una zona amarilla.", required)
	default:
		return fmt.Sprintf("Verificación nivel %d requerida para tu rol.", required)
	}
}
