// Package cerebro wires the decision engine to its collaborators: the
// verification registry, the wallet ledger, the audit trail and alerting.
// Every transport (gRPC, HTTP, MCP, SDK) goes through a Service.
package cerebro

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/cerebro/internal/alert"
	"github.com/ppiankov/cerebro/internal/audit"
	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/role"
	"github.com/ppiankov/cerebro/internal/verification"
	"github.com/ppiankov/cerebro/internal/zone"
)

// Ledger reports how much a user already moved in the current wallet period.
// Read-only; the engine never writes to it.
type Ledger interface {
	PeriodTransferred(ctx context.Context, userID string) (int64, error)
}

// LedgerFunc adapts a function to Ledger.
type LedgerFunc func(ctx context.Context, userID string) (int64, error)

// PeriodTransferred calls f.
func (f LedgerFunc) PeriodTransferred(ctx context.Context, userID string) (int64, error) {
	return f(ctx, userID)
}

// Options configures a Service. Zero values are usable: no audit log, an
// in-memory verification store, no ledger and a no-op logger.
type Options struct {
	// PolicyPath is re-read by ReloadPolicy. Empty means defaults.
	PolicyPath   string
	AuditLogPath string
	Store        verification.Store
	Ledger       Ledger
	Logger       *zap.Logger
	Now          func() time.Time
}

// Service evaluates decisions against the current policy. The engine is
// swapped as a whole on reload; in-flight calls finish on the old one.
type Service struct {
	mu         sync.RWMutex
	engine     *policy.Engine
	policyHash string
	dispatcher *alert.Dispatcher

	registry   *verification.Registry
	ledger     Ledger
	auditLog   *audit.Log
	log        *zap.Logger
	now        func() time.Time
	policyPath string
}

// Load reads the policy at opts.PolicyPath and builds a Service.
func Load(opts Options) (*Service, error) {
	cfg, hash, err := policy.LoadConfigWithHash(opts.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy config: %w", err)
	}
	return New(cfg, hash, opts)
}

// New builds a Service from an already loaded config. The config must
// validate; a Service never serves from a broken policy.
func New(cfg *policy.PolicyConfig, policyHash string, opts Options) (*Service, error) {
	engine, err := policy.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var auditLog *audit.Log
	if opts.AuditLogPath != "" {
		auditLog, err = audit.Open(opts.AuditLogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
	}

	return &Service{
		engine:     engine,
		policyHash: policyHash,
		dispatcher: alert.NewDispatcher(cfg.Alerts, log),
		registry:   verification.NewRegistry(opts.Store, cfg.Freshness),
		ledger:     opts.Ledger,
		auditLog:   auditLog,
		log:        log.Named("decision"),
		now:        now,
		policyPath: opts.PolicyPath,
	}, nil
}

// Engine returns the engine currently in use.
func (s *Service) Engine() *policy.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// PolicyHash returns the hash of the policy currently in use.
func (s *Service) PolicyHash() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policyHash
}

// Registry returns the verification registry.
func (s *Service) Registry() *verification.Registry {
	return s.registry
}

// Reload validates cfg and atomically replaces the engine. On error the
// running policy is kept.
func (s *Service) Reload(cfg *policy.PolicyConfig, policyHash string) error {
	engine, err := policy.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}

	s.mu.Lock()
	old := s.dispatcher
	s.engine = engine
	s.policyHash = policyHash
	s.dispatcher = alert.NewDispatcher(cfg.Alerts, s.log)
	s.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		old.Close(ctx)
	}()

	s.record(audit.Entry{Type: audit.TypeReload, PolicyHash: policyHash})
	s.log.Info("policy reloaded", zap.String("policy_hash", policyHash))
	return nil
}

// ReloadPolicy re-reads the policy file the Service was created with.
func (s *Service) ReloadPolicy() error {
	cfg, hash, err := policy.LoadConfigWithHash(s.policyPath)
	if err != nil {
		return fmt.Errorf("failed to reload policy config: %w", err)
	}
	return s.Reload(cfg, hash)
}

// DecideInput is a decision request as transports receive it. Role and
// Impact are wire strings; parsing failures fail closed inside Decide.
type DecideInput struct {
	Intent model.Intent
	UserID string
	Role   string
	// Verification overrides the registry when the caller tracks it itself.
	Verification  *verification.State
	Point         *model.GeoPoint
	ActiveEscudos []string
	Amount        *int64
	Impact        string
}

// DecideResult is a rendered decision plus the trace behind it.
type DecideResult struct {
	DecisionID string
	Outcome    model.Outcome
	Evaluation policy.Evaluation
	PolicyHash string
}

// Decide evaluates one intent. It never returns an error: anything that goes
// wrong while gathering context becomes a fail-closed Blocked.
func (s *Service) Decide(ctx context.Context, in DecideInput) DecideResult {
	s.mu.RLock()
	engine := s.engine
	hash := s.policyHash
	dispatcher := s.dispatcher
	s.mu.RUnlock()

	now := s.now()
	id := uuid.NewString()

	r, _ := role.ParseRole(in.Role)
	var ev policy.Evaluation
	pctx, err := s.context(ctx, in, r)
	if err != nil {
		ev = policy.Evaluation{Decision: model.Fault(err), Step: policy.StepFault}
	} else {
		ev = engine.Evaluate(policy.Request{Intent: in.Intent, Context: pctx}, now)
	}

	res := DecideResult{
		DecisionID: id,
		Outcome:    model.Render(ev.Decision),
		Evaluation: ev,
		PolicyHash: hash,
	}
	s.observe(in, res, dispatcher, now)
	return res
}

func (s *Service) context(ctx context.Context, in DecideInput, r role.Role) (policy.Context, error) {
	pctx := policy.Context{
		UserID:        in.UserID,
		Role:          r,
		Point:         in.Point,
		ActiveEscudos: in.ActiveEscudos,
		Amount:        in.Amount,
		Impact:        model.ImpactClass(in.Impact),
	}
	if err := ctx.Err(); err != nil {
		return pctx, err
	}

	switch {
	case in.Verification != nil:
		pctx.Verification = *in.Verification
	case in.UserID != "":
		st, err := s.registry.State(ctx, in.UserID)
		if err != nil {
			return pctx, fmt.Errorf("load verification: %w", err)
		}
		pctx.Verification = st
	}

	if s.ledger != nil && in.UserID != "" && in.Intent.ID == intent.WalletTransfer {
		total, err := s.ledger.PeriodTransferred(ctx, in.UserID)
		if err != nil {
			return pctx, fmt.Errorf("ledger: %w", err)
		}
		pctx.PeriodTransferred = total
	}
	return pctx, nil
}

func (s *Service) observe(in DecideInput, res DecideResult, d *alert.Dispatcher, now time.Time) {
	ev := res.Evaluation
	kind := string(ev.Decision.Kind())
	fields := []zap.Field{
		zap.String("decision_id", res.DecisionID),
		zap.String("user_id", in.UserID),
		zap.String("role", in.Role),
		zap.String("intent", in.Intent.ID),
		zap.String("kind", kind),
		zap.String("step", string(ev.Step)),
		zap.String("zone", string(ev.Zone.State)),
		zap.Int("required_level", int(ev.RequiredLevel)),
	}

	var cause string
	if b, ok := ev.Decision.(model.Blocked); ok {
		if b.Cause != nil {
			cause = b.Cause.Error()
			fields = append(fields, zap.Error(b.Cause))
		}
		s.log.Warn("decision blocked", fields...)
	} else {
		s.log.Info("decision", fields...)
	}

	ts := now.UTC().Format(audit.TimestampFormat)
	s.record(audit.Entry{
		Timestamp:     ts,
		DecisionID:    res.DecisionID,
		UserID:        in.UserID,
		Role:          in.Role,
		Intent:        in.Intent.ID,
		Source:        string(in.Intent.Source),
		Kind:          kind,
		Step:          string(ev.Step),
		RequiredLevel: int(ev.RequiredLevel),
		Severity:      string(res.Outcome.Severity),
		Zone:          audit.Zone{State: string(ev.Zone.State), TerritoryID: ev.Zone.TerritoryID},
		Amount:        ev.Amount,
		Escudos:       ev.AppliedEscudos,
		Reason:        res.Outcome.Reason,
		Cause:         cause,
		PolicyHash:    res.PolicyHash,
	})

	level := 0
	if res.Outcome.RequiredLevel != nil {
		level = int(*res.Outcome.RequiredLevel)
	}
	d.Dispatch(alert.Event{
		Timestamp:     ts,
		DecisionID:    res.DecisionID,
		UserID:        in.UserID,
		Role:          in.Role,
		Intent:        in.Intent.ID,
		Kind:          kind,
		Reason:        res.Outcome.Reason,
		Severity:      string(res.Outcome.Severity),
		RequiredLevel: level,
		TerritoryID:   ev.Zone.TerritoryID,
		PolicyHash:    res.PolicyHash,
		Fault:         ev.Step == policy.StepFault,
	})
}

func (s *Service) record(e audit.Entry) {
	if s.auditLog == nil {
		return
	}
	if e.PolicyHash == "" {
		e.PolicyHash = s.PolicyHash()
	}
	if err := s.auditLog.Record(e); err != nil {
		s.log.Error("audit write failed", zap.String("decision_id", e.DecisionID), zap.Error(err))
	}
}

// ResolveZone classifies a point with the current policy.
func (s *Service) ResolveZone(p model.GeoPoint) (zone.Resolution, error) {
	return s.Engine().Resolver().Resolve(p)
}

// Territory returns the state of a configured territory.
func (s *Service) Territory(id string) (zone.Resolution, error) {
	return s.Engine().Resolver().ResolveByID(id)
}

// StartVerification marks a capture flow as pending for userID.
func (s *Service) StartVerification(ctx context.Context, userID string, level model.Level, method verification.Method) error {
	return s.registry.Start(ctx, userID, level, method)
}

// RecordVerification stores the result of a capture attempt. Successful
// attempts are persisted and audited.
func (s *Service) RecordVerification(ctx context.Context, userID string, success bool, level model.Level, method verification.Method) (verification.Snapshot, error) {
	now := s.now()
	snap, err := s.registry.Record(ctx, userID, success, level, method, now)
	if err != nil {
		return snap, err
	}
	if success {
		s.record(audit.Entry{
			Timestamp:     now.UTC().Format(audit.TimestampFormat),
			Type:          audit.TypeVerification,
			UserID:        userID,
			RequiredLevel: int(level),
			Reason:        string(method),
		})
	}
	s.log.Info("verification recorded",
		zap.String("user_id", userID),
		zap.Bool("success", success),
		zap.Int("level", int(level)),
		zap.String("method", string(method)))
	return snap, nil
}

// Close drains alert deliveries and closes the audit log and store.
func (s *Service) Close(ctx context.Context) error {
	s.mu.RLock()
	d := s.dispatcher
	s.mu.RUnlock()
	d.Close(ctx)

	var firstErr error
	if s.auditLog != nil {
		firstErr = s.auditLog.Close()
	}
	if err := s.registry.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
