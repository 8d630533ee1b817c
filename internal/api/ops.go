package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/ppiankov/cerebro/internal/cerebro"
	"github.com/ppiankov/cerebro/internal/model"
)

var (
	// ErrBadRequest marks requests that cannot be served as given.
	ErrBadRequest = errors.New("bad request")
	// ErrNotFound marks lookups of unknown territories.
	ErrNotFound = errors.New("not found")
)

// Decide runs a decision. It never fails; faults are rendered as Blocked.
func Decide(ctx context.Context, svc *cerebro.Service, req DecideRequest) DecideResponse {
	return NewDecideResponse(svc.Decide(ctx, req.Input()))
}

// Zone resolves a point or a territory. Malformed points still return a red
// resolution alongside the error.
func Zone(svc *cerebro.Service, req ZoneRequest) (ZoneResponse, error) {
	switch {
	case req.GeoPoint != nil && req.TerritoryID != "":
		return ZoneResponse{}, fmt.Errorf("%w: set geo_point or territory_id, not both", ErrBadRequest)
	case req.GeoPoint != nil:
		res, err := svc.ResolveZone(*req.GeoPoint)
		if err != nil {
			return ZoneResponse{res}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		return ZoneResponse{res}, nil
	case req.TerritoryID != "":
		res, err := svc.Territory(req.TerritoryID)
		if errors.Is(err, model.ErrConfig) {
			return ZoneResponse{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return ZoneResponse{res}, err
	default:
		return ZoneResponse{}, fmt.Errorf("%w: geo_point or territory_id required", ErrBadRequest)
	}
}

// RecordVerification starts or completes a verification attempt.
func RecordVerification(ctx context.Context, svc *cerebro.Service, req VerificationRequest) (VerificationResponse, error) {
	if req.UserID == "" {
		return VerificationResponse{}, fmt.Errorf("%w: user_id required", ErrBadRequest)
	}
	if req.Start {
		if err := svc.StartVerification(ctx, req.UserID, req.Level, req.Method); err != nil {
			return VerificationResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		snap, err := svc.Registry().Snapshot(ctx, req.UserID)
		return VerificationResponse{UserID: req.UserID, Snapshot: snap}, err
	}
	snap, err := svc.RecordVerification(ctx, req.UserID, req.Success, req.Level, req.Method)
	if err != nil {
		return VerificationResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return VerificationResponse{UserID: req.UserID, Snapshot: snap}, nil
}
