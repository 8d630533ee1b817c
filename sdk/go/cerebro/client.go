package cerebro

import (
	"context"
	"fmt"

	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/verification"
)

// Client holds the decision pipeline for in-process enforcement.
// Safe for concurrent use.
type Client struct {
	svc *cerebro.Service
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o(&cfg)
	}

	store, err := verification.Open(context.Background(), cfg.storeSpec)
	if err != nil {
		return nil, fmt.Errorf("cerebro: failed to open verification store: %w", err)
	}

	svcOpts := cerebro.Options{
		PolicyPath:   cfg.policyPath,
		AuditLogPath: cfg.auditLogPath,
		Store:        store,
		Logger:       cfg.logger,
	}
	if cfg.ledger != nil {
		svcOpts.Ledger = cerebro.LedgerFunc(cfg.ledger)
	}

	svc, err := cerebro.Load(svcOpts)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("cerebro: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Decide evaluates an intent for a user. It never returns an error: faults
// and cancelled contexts come back as Blocked.
func (c *Client) Decide(ctx context.Context, in Intent, u User) Result {
	res := c.svc.Decide(ctx, toInput(in, u))
	return toResult(res.DecisionID, res.PolicyHash, res.Outcome)
}

// StartVerification marks a verification capture as pending for userID.
func (c *Client) StartVerification(ctx context.Context, userID string, level int, method string) error {
	return c.svc.StartVerification(ctx, userID, model.Level(level), verification.Method(method))
}

// RecordVerification completes a capture. A success refreshes the user's
// verified state; a failure keeps the previous one.
func (c *Client) RecordVerification(ctx context.Context, userID string, success bool, level int, method string) error {
	_, err := c.svc.RecordVerification(ctx, userID, success, model.Level(level), verification.Method(method))
	return err
}

// ReloadPolicy re-reads the policy file. On error the current policy stays.
func (c *Client) ReloadPolicy() error {
	return c.svc.ReloadPolicy()
}

// PolicyHash identifies the policy currently in use.
func (c *Client) PolicyHash() string {
	return c.svc.PolicyHash()
}

// Close flushes alerts and closes the audit log and verification store.
func (c *Client) Close(ctx context.Context) error {
	return c.svc.Close(ctx)
}

func toInput(in Intent, u User) cerebro.DecideInput {
	raw := map[string]any{"intent_id": in.ID, "source": in.Source}
	if in.Payload != nil {
		raw["payload"] = in.Payload
	}
	di := cerebro.DecideInput{
		Intent:        intent.FromMap(raw),
		UserID:        u.ID,
		Role:          u.Role,
		ActiveEscudos: u.Escudos,
		Amount:        u.Amount,
		Impact:        u.Impact,
	}
	if u.Point != nil {
		di.Point = &model.GeoPoint{Lat: u.Point.Lat, Lng: u.Point.Lng}
	}
	if u.VerifiedLevel > 0 {
		di.Verification = &verification.State{Level: model.Level(u.VerifiedLevel), VerifiedAt: u.VerifiedAt}
	}
	return di
}
