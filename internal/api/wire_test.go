package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/verification"
)

func testService(t *testing.T) *cerebro.Service {
	t.Helper()
	svc, err := cerebro.New(policy.DefaultConfig(), "sha256:test", cerebro.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close(context.Background()) })
	return svc
}

func TestFromStructDecodesRequest(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"intent": map[string]any{
			"intent_id": "wallet_transfer",
			"source":    "voice",
			"payload":   map[string]any{"to": "u-9"},
		},
		"context": map[string]any{
			"user_id":        "u-1",
			"role":           "capeto",
			"amount":         1000000,
			"impact_class":   "medium",
			"geo_point":      map[string]any{"lat": -25.29, "lng": -57.58},
			"active_escudos": []any{"fintech"},
			"verification": map[string]any{
				"level":       2,
				"method":      "face",
				"verified_at": "2026-03-01T14:59:00Z",
			},
		},
	})
	require.NoError(t, err)

	var req DecideRequest
	require.NoError(t, FromStruct(s, &req))

	in := req.Input()
	assert.Equal(t, "wallet_transfer", in.Intent.ID)
	assert.Equal(t, model.SourceVoice, in.Intent.Source)
	assert.Equal(t, "u-9", in.Intent.Payload["to"])
	assert.Equal(t, "capeto", in.Role)
	require.NotNil(t, in.Amount)
	assert.Equal(t, int64(1_000_000), *in.Amount)
	assert.Equal(t, []string{"fintech"}, in.ActiveEscudos)
	require.NotNil(t, in.Verification)
	assert.Equal(t, model.LevelFace, in.Verification.Level)
	assert.Equal(t, verification.MethodFace, in.Verification.Method)
	assert.True(t, in.Verification.VerifiedAt.Equal(time.Date(2026, 3, 1, 14, 59, 0, 0, time.UTC)))
}

func TestFromStructRejectsFractionalAmount(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"intent":  map[string]any{"intent_id": "wallet_transfer"},
		"context": map[string]any{"role": "cliente", "amount": 10.5},
	})
	require.NoError(t, err)

	var req DecideRequest
	assert.Error(t, FromStruct(s, &req))
	assert.Error(t, FromStruct(nil, &req))
}

func TestToStructEncodesOutcome(t *testing.T) {
	svc := testService(t)
	resp := Decide(context.Background(), svc, DecideRequest{
		Intent:  map[string]any{"intent_id": "wallet_transfer"},
		Context: Context{Role: "vale"},
	})

	s, err := ToStruct(resp)
	require.NoError(t, err)

	m := s.AsMap()
	assert.Equal(t, resp.DecisionID, m["decision_id"])
	outcome := m["outcome"].(map[string]any)
	assert.Equal(t, true, outcome["blocked"])
	assert.Equal(t, "red", outcome["severity"])
	assert.Equal(t, []any{}, outcome["suggestedActions"])
}

func TestZoneRequests(t *testing.T) {
	svc := testService(t)

	res, err := Zone(svc, ZoneRequest{GeoPoint: &model.GeoPoint{Lat: -25.2783, Lng: -57.6425}})
	require.NoError(t, err)
	assert.Equal(t, model.Red, res.State)
	assert.Equal(t, "chacarita", res.TerritoryID)

	res, err = Zone(svc, ZoneRequest{TerritoryID: "villa_morra"})
	require.NoError(t, err)
	assert.Equal(t, model.Green, res.State)

	_, err = Zone(svc, ZoneRequest{TerritoryID: "luque"})
	assert.ErrorIs(t, err, ErrNotFound)

	res, err = Zone(svc, ZoneRequest{GeoPoint: &model.GeoPoint{Lat: 100}})
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Equal(t, model.Red, res.State)

	_, err = Zone(svc, ZoneRequest{})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestRecordVerificationRequests(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	resp, err := RecordVerification(ctx, svc, VerificationRequest{UserID: "u-1", Level: 2, Method: verification.MethodFace, Start: true})
	require.NoError(t, err)
	assert.Equal(t, verification.PhasePending, resp.Snapshot.Phase)

	resp, err = RecordVerification(ctx, svc, VerificationRequest{UserID: "u-1", Level: 2, Method: verification.MethodFace, Success: true})
	require.NoError(t, err)
	assert.Equal(t, verification.PhaseVerified, resp.Snapshot.Phase)
	assert.Equal(t, model.LevelFace, resp.Snapshot.Verified.Level)

	_, err = RecordVerification(ctx, svc, VerificationRequest{Level: 1})
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = RecordVerification(ctx, svc, VerificationRequest{UserID: "u-1", Level: 7, Success: true})
	assert.ErrorIs(t, err, ErrBadRequest)
}
