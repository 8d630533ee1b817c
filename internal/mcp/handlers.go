package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/cerebro/internal/api"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/verification"
)

// --- Input/Output types ---

// DecideInput defines parameters for the cerebro_decide tool.
type DecideInput struct {
	IntentID      string         `json:"intent_id" jsonschema:"intent identifier, e.g. wallet_transfer or navigate.home"`
	Payload       map[string]any `json:"payload,omitempty" jsonschema:"intent payload"`
	Source        string         `json:"source,omitempty" jsonschema:"chip, voice or system"`
	UserID        string         `json:"user_id,omitempty" jsonschema:"user id; recorded verifications are looked up by it"`
	Role          string         `json:"role" jsonschema:"vale, capeto, cliente or mbarete"`
	Lat           *float64       `json:"lat,omitempty" jsonschema:"latitude of the user"`
	Lng           *float64       `json:"lng,omitempty" jsonschema:"longitude of the user"`
	ActiveEscudos []string       `json:"active_escudos,omitempty" jsonschema:"active escudo ids"`
	Amount        *int64         `json:"amount,omitempty" jsonschema:"amount in guaranies"`
	ImpactClass   string         `json:"impact_class,omitempty" jsonschema:"low, medium or high"`
}

// DecideOutput contains the rendered decision.
type DecideOutput struct {
	DecisionID string        `json:"decision_id"`
	Kind       string        `json:"kind"`
	Outcome    model.Outcome `json:"outcome"`
	Error      string        `json:"error,omitempty"`
}

// ZoneInput defines parameters for the cerebro_zone tool.
type ZoneInput struct {
	Lat         *float64 `json:"lat,omitempty" jsonschema:"latitude"`
	Lng         *float64 `json:"lng,omitempty" jsonschema:"longitude"`
	TerritoryID string   `json:"territory_id,omitempty" jsonschema:"territory id, instead of a coordinate"`
}

// ZoneOutput contains the zone resolution.
type ZoneOutput struct {
	State       string `json:"state"`
	TerritoryID string `json:"territory_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Covered     bool   `json:"covered"`
	Error       string `json:"error,omitempty"`
}

// VerifyInput defines parameters for the cerebro_verify tool.
type VerifyInput struct {
	UserID  string `json:"user_id" jsonschema:"user id"`
	Level   int    `json:"level" jsonschema:"verification level 1-3"`
	Method  string `json:"method,omitempty" jsonschema:"confirm, face or document"`
	Success bool   `json:"success,omitempty" jsonschema:"whether the capture succeeded"`
	Start   bool   `json:"start,omitempty" jsonschema:"mark the verification as pending instead of completing it"`
}

// VerifyOutput contains the tracker state after the call.
type VerifyOutput struct {
	Phase      string `json:"phase"`
	Level      int    `json:"level"`
	Method     string `json:"method,omitempty"`
	VerifiedAt string `json:"verified_at,omitempty"`
	Error      string `json:"error,omitempty"`
}

// --- Handlers ---

func (s *Server) handleDecide(ctx context.Context, req *mcpsdk.CallToolRequest, input DecideInput) (*mcpsdk.CallToolResult, DecideOutput, error) {
	intent := map[string]any{"intent_id": input.IntentID, "source": input.Source}
	if input.Payload != nil {
		intent["payload"] = input.Payload
	}
	point, err := geoPoint(input.Lat, input.Lng)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, DecideOutput{
			Kind:    string(model.KindBlocked),
			Outcome: model.Render(model.Fault(err)),
			Error:   err.Error(),
		}, nil
	}

	resp := api.Decide(ctx, s.svc, api.DecideRequest{
		Intent: intent,
		Context: api.Context{
			UserID:        input.UserID,
			Role:          input.Role,
			GeoPoint:      point,
			ActiveEscudos: input.ActiveEscudos,
			Amount:        input.Amount,
			ImpactClass:   input.ImpactClass,
		},
	})

	kind := model.KindBlocked
	switch {
	case resp.Outcome.Allowed:
		kind = model.KindAllowed
	case resp.Outcome.RequiresValidation:
		kind = model.KindRequiresValidation
	}
	return nil, DecideOutput{DecisionID: resp.DecisionID, Kind: string(kind), Outcome: resp.Outcome}, nil
}

func (s *Server) handleZone(ctx context.Context, req *mcpsdk.CallToolRequest, input ZoneInput) (*mcpsdk.CallToolResult, ZoneOutput, error) {
	point, err := geoPoint(input.Lat, input.Lng)
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, ZoneOutput{State: string(model.Red), Error: err.Error()}, nil
	}
	zr := api.ZoneRequest{TerritoryID: input.TerritoryID, GeoPoint: point}

	resp, err := api.Zone(s.svc, zr)
	out := ZoneOutput{
		State:       string(resp.State),
		TerritoryID: resp.TerritoryID,
		Reason:      resp.Reason,
		Covered:     resp.Covered,
	}
	if err != nil {
		out.Error = err.Error()
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleVerify(ctx context.Context, req *mcpsdk.CallToolRequest, input VerifyInput) (*mcpsdk.CallToolResult, VerifyOutput, error) {
	resp, err := api.RecordVerification(ctx, s.svc, api.VerificationRequest{
		UserID:  input.UserID,
		Level:   model.Level(input.Level),
		Method:  verification.Method(input.Method),
		Success: input.Success,
		Start:   input.Start,
	})
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, VerifyOutput{Phase: string(verification.PhaseUnverified), Error: err.Error()}, nil
	}

	snap := resp.Snapshot
	out := VerifyOutput{
		Phase:  string(snap.Phase),
		Level:  int(snap.Verified.Level),
		Method: string(snap.Verified.Method),
	}
	if !snap.Verified.VerifiedAt.IsZero() {
		out.VerifiedAt = snap.Verified.VerifiedAt.UTC().Format(time.RFC3339)
	}
	return nil, out, nil
}

// geoPoint requires lat and lng together. A lone coordinate is malformed.
func geoPoint(lat, lng *float64) (*model.GeoPoint, error) {
	switch {
	case lat == nil && lng == nil:
		return nil, nil
	case lat == nil || lng == nil:
		return nil, fmt.Errorf("%w: lat and lng must be set together", model.ErrZoneUnresolvable)
	}
	return &model.GeoPoint{Lat: *lat, Lng: *lng}, nil
}
