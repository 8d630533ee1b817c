package cerebro

import (
	"context"

	"go.uber.org/zap"
)

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath   string
	auditLogPath string
	storeSpec    string
	ledger       func(ctx context.Context, userID string) (int64, error)
	logger       *zap.Logger
}

// WithPolicy sets the path to a policy YAML file. Missing files mean the
// built-in policy.
func WithPolicy(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithAuditLog enables the hash-chained decision log at path.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditLogPath = path }
}

// WithVerificationStore selects where verification state is kept:
// "memory" (default), "sqlite:<path>" or "redis:<addr>".
func WithVerificationStore(spec string) Option {
	return func(c *clientConfig) { c.storeSpec = spec }
}

// WithLedger supplies the amount a user already transferred in the current
// day, used for the daily wallet limit. Errors block the transfer.
func WithLedger(fn func(ctx context.Context, userID string) (int64, error)) Option {
	return func(c *clientConfig) { c.ledger = fn }
}

// WithLogger sets the zap logger for decisions and reloads.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}
