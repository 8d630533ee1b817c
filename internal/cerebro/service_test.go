package cerebro

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/cerebro/internal/audit"
	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/verification"
)

var fixedNow = time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	svc, err := New(policy.DefaultConfig(), "sha256:test", opts)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

func amount(n int64) *int64 { return &n }

func transfer(userID, role string, n int64) DecideInput {
	return DecideInput{
		Intent: model.Intent{ID: intent.WalletTransfer, Source: model.SourceChip},
		UserID: userID,
		Role:   role,
		Amount: amount(n),
	}
}

func TestDecideUsesRecordedVerification(t *testing.T) {
	svc := newService(t, Options{})
	ctx := context.Background()

	res := svc.Decide(ctx, transfer("u-1", "cliente", 1_500_000))
	require.True(t, res.Outcome.RequiresValidation, "outcome: %+v", res.Outcome)
	require.NotNil(t, res.Outcome.RequiredLevel)
	assert.Equal(t, model.LevelFace, *res.Outcome.RequiredLevel)
	assert.NotEmpty(t, res.DecisionID)
	assert.Equal(t, "sha256:test", res.PolicyHash)

	require.NoError(t, svc.StartVerification(ctx, "u-1", model.LevelFace, verification.MethodFace))
	snap, err := svc.RecordVerification(ctx, "u-1", true, model.LevelFace, verification.MethodFace)
	require.NoError(t, err)
	assert.Equal(t, verification.PhaseVerified, snap.Phase)

	res = svc.Decide(ctx, transfer("u-1", "cliente", 1_500_000))
	assert.True(t, res.Outcome.Allowed, "outcome: %+v", res.Outcome)
}

func TestDecideCallerVerificationOverridesRegistry(t *testing.T) {
	svc := newService(t, Options{})
	in := transfer("u-2", "cliente", 1_500_000)
	in.Verification = &verification.State{Level: model.LevelStrong, VerifiedAt: fixedNow.Add(-10 * time.Second)}

	res := svc.Decide(context.Background(), in)
	assert.True(t, res.Outcome.Allowed, "outcome: %+v", res.Outcome)
}

func TestDecideDistinctIDs(t *testing.T) {
	svc := newService(t, Options{})
	a := svc.Decide(context.Background(), transfer("u-3", "vale", 10))
	b := svc.Decide(context.Background(), transfer("u-3", "vale", 10))
	assert.NotEqual(t, a.DecisionID, b.DecisionID)
	assert.Equal(t, a.Outcome, b.Outcome)
}

func TestLedgerFeedsEscalation(t *testing.T) {
	ledger := LedgerFunc(func(ctx context.Context, userID string) (int64, error) {
		return 950_000, nil
	})
	svc := newService(t, Options{Ledger: ledger})

	res := svc.Decide(context.Background(), transfer("u-4", "cliente", 100_000))
	require.True(t, res.Outcome.RequiresValidation, "outcome: %+v", res.Outcome)
	assert.Equal(t, model.LevelFace, *res.Outcome.RequiredLevel)

	// Non-transfer intents never consult the ledger.
	res = svc.Decide(context.Background(), DecideInput{
		Intent: model.Intent{ID: intent.NavigateHome},
		UserID: "u-4",
		Role:   "cliente",
	})
	assert.True(t, res.Outcome.Allowed)
}

func TestLedgerErrorFailsClosed(t *testing.T) {
	ledger := LedgerFunc(func(ctx context.Context, userID string) (int64, error) {
		return 0, errors.New("ledger down")
	})
	svc := newService(t, Options{Ledger: ledger})

	res := svc.Decide(context.Background(), transfer("u-5", "cliente", 1))
	assert.True(t, res.Outcome.Blocked)
	assert.Equal(t, model.GenericBlockMessage, res.Outcome.Message)
	assert.Equal(t, policy.StepFault, res.Evaluation.Step)
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	svc := newService(t, Options{})
	res := svc.Decide(context.Background(), DecideInput{
		Intent: model.Intent{ID: intent.NavigateHome},
		Role:   "jefe",
	})
	assert.True(t, res.Outcome.Blocked)
	assert.Equal(t, model.GenericBlockMessage, res.Outcome.Message)
}

func TestInvalidUserIDFailsClosed(t *testing.T) {
	svc := newService(t, Options{})
	res := svc.Decide(context.Background(), transfer("bad user!", "cliente", 1))
	assert.True(t, res.Outcome.Blocked)
	assert.Equal(t, policy.StepFault, res.Evaluation.Step)
}

func TestDecisionsAreAudited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "decisions.jsonl")
	svc := newService(t, Options{AuditLogPath: path})
	ctx := context.Background()

	svc.Decide(ctx, transfer("u-6", "vale", 10))
	svc.Decide(ctx, DecideInput{
		Intent: model.Intent{ID: intent.NavigateHome},
		Role:   "cliente",
		Point:  &model.GeoPoint{Lat: 200, Lng: 0},
	})
	_, err := svc.RecordVerification(ctx, "u-6", true, model.LevelConfirm, verification.MethodConfirm)
	require.NoError(t, err)
	require.NoError(t, svc.Close(ctx))

	result := audit.Verify(path)
	require.True(t, result.Valid, result.Error)
	assert.Equal(t, 3, result.Lines)

	replay, err := audit.Replay(path, audit.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, replay.Summary.Faults)
	assert.Equal(t, 1, replay.Summary.Verifications)
	assert.Equal(t, "role", replay.Entries[0].Step)
	assert.Contains(t, replay.Entries[1].Cause, "zone unresolvable")
	assert.Equal(t, "sha256:test", replay.Entries[2].PolicyHash)
}

func TestBlockedDecisionsLogAtWarn(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := newService(t, Options{Logger: zap.New(core)})
	ctx := context.Background()

	svc.Decide(ctx, transfer("u-7", "vale", 10))
	svc.Decide(ctx, DecideInput{Intent: model.Intent{ID: intent.NavigateHome}, Role: "vale"})

	warn := logs.FilterMessage("decision blocked").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zapcore.WarnLevel, warn[0].Level)
	assert.Equal(t, "u-7", warn[0].ContextMap()["user_id"])
	assert.Equal(t, "blocked", warn[0].ContextMap()["kind"])

	info := logs.FilterMessage("decision").All()
	require.Len(t, info, 1)
	assert.Equal(t, "allowed", info[0].ContextMap()["kind"])
}

func TestReloadKeepsPolicyOnError(t *testing.T) {
	svc := newService(t, Options{})

	bad := policy.DefaultConfig()
	bad.Escalation.MediumThreshold = bad.Escalation.HighThreshold + 1
	err := svc.Reload(bad, "sha256:bad")
	require.ErrorIs(t, err, model.ErrEscalationMisconfigured)
	assert.Equal(t, "sha256:test", svc.PolicyHash())

	good := policy.DefaultConfig()
	good.Zones.Overrides = map[string]model.Semaphore{"villa_morra": model.Red}
	require.NoError(t, svc.Reload(good, "sha256:new"))
	assert.Equal(t, "sha256:new", svc.PolicyHash())

	res, err := svc.Territory("villa_morra")
	require.NoError(t, err)
	assert.Equal(t, model.Red, res.State)
}

func TestReloadPolicyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("zones:\n  uncovered_default: yellow\n"), 0644))

	svc, err := Load(Options{PolicyPath: path})
	require.NoError(t, err)
	defer svc.Close(context.Background())

	res, err := svc.ResolveZone(model.GeoPoint{Lat: 10, Lng: 10})
	require.NoError(t, err)
	assert.Equal(t, model.Yellow, res.State)

	require.NoError(t, os.WriteFile(path, []byte("zones:\n  uncovered_default: red\n"), 0644))
	require.NoError(t, svc.ReloadPolicy())

	res, err = svc.ResolveZone(model.GeoPoint{Lat: 10, Lng: 10})
	require.NoError(t, err)
	assert.Equal(t, model.Red, res.State)
}

func TestResolveZoneMalformed(t *testing.T) {
	svc := newService(t, Options{})
	res, err := svc.ResolveZone(model.GeoPoint{Lat: 91, Lng: 0})
	assert.ErrorIs(t, err, model.ErrZoneUnresolvable)
	assert.Equal(t, model.Red, res.State)
}
