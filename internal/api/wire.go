// Package api holds the JSON wire shapes shared by the gRPC, HTTP and MCP
// surfaces, and their conversion to service inputs.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/verification"
	"github.com/ppiankov/cerebro/internal/zone"
)

// Verification is a caller-tracked verified state.
type Verification struct {
	Level      model.Level         `json:"level"`
	Method     verification.Method `json:"method,omitempty"`
	VerifiedAt time.Time           `json:"verified_at"`
}

// Context is the user context of a decision request.
type Context struct {
	UserID        string          `json:"user_id,omitempty"`
	Role          string          `json:"role"`
	Verification  *Verification   `json:"verification,omitempty"`
	GeoPoint      *model.GeoPoint `json:"geo_point,omitempty"`
	ActiveEscudos []string        `json:"active_escudos,omitempty"`
	Amount        *int64          `json:"amount,omitempty"`
	ImpactClass   string          `json:"impact_class,omitempty"`
}

// DecideRequest is the body of a decision call. Intent stays a raw map so
// payload values are coerced the same way on every surface.
type DecideRequest struct {
	Intent  map[string]any `json:"intent"`
	Context Context        `json:"context"`
}

// Input converts the request for the service.
func (r DecideRequest) Input() cerebro.DecideInput {
	in := cerebro.DecideInput{
		Intent:        intent.FromMap(r.Intent),
		UserID:        r.Context.UserID,
		Role:          r.Context.Role,
		Point:         r.Context.GeoPoint,
		ActiveEscudos: r.Context.ActiveEscudos,
		Amount:        r.Context.Amount,
		Impact:        r.Context.ImpactClass,
	}
	if v := r.Context.Verification; v != nil {
		in.Verification = &verification.State{Level: v.Level, Method: v.Method, VerifiedAt: v.VerifiedAt}
	}
	return in
}

// DecideResponse is a rendered decision.
type DecideResponse struct {
	DecisionID string        `json:"decision_id"`
	PolicyHash string        `json:"policy_hash"`
	Outcome    model.Outcome `json:"outcome"`
}

// NewDecideResponse renders a service result.
func NewDecideResponse(res cerebro.DecideResult) DecideResponse {
	return DecideResponse{DecisionID: res.DecisionID, PolicyHash: res.PolicyHash, Outcome: res.Outcome}
}

// ZoneRequest asks for a point or a territory; exactly one must be set.
type ZoneRequest struct {
	GeoPoint    *model.GeoPoint `json:"geo_point,omitempty"`
	TerritoryID string          `json:"territory_id,omitempty"`
}

// ZoneResponse is a zone resolution.
type ZoneResponse struct {
	zone.Resolution
}

// VerificationRequest reports a capture attempt. Start marks it pending
// instead of completing it.
type VerificationRequest struct {
	UserID  string              `json:"user_id"`
	Level   model.Level         `json:"level"`
	Method  verification.Method `json:"method"`
	Success bool                `json:"success"`
	Start   bool                `json:"start,omitempty"`
}

// VerificationResponse is the tracker state after the call.
type VerificationResponse struct {
	UserID   string                `json:"user_id"`
	Snapshot verification.Snapshot `json:"snapshot"`
}

// FromStruct decodes a protobuf Struct into a wire type.
func FromStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("empty request")
	}
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return fmt.Errorf("encode struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// ToStruct encodes a wire type as a protobuf Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert response: %w", err)
	}
	return out, nil
}
