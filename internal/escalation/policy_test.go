package escalation

import (
	"errors"
	"testing"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

func TestRulesFirstMatchWins(t *testing.T) {
	p := Default()
	tests := []struct {
		name     string
		amount   int64
		role     role.Role
		impact   model.ImpactClass
		escalate bool
		min      model.Level
		rule     string
	}{
		{"high impact zero amount", 0, role.Cliente, model.ImpactHigh, true, model.LevelFace, "impact.high"},
		{"high amount low impact", 1_000_000, role.Capeto, model.ImpactLow, true, model.LevelFace, "amount.high"},
		{"just below high", 999_999, role.Cliente, model.ImpactLow, false, model.LevelNone, "none"},
		{"medium amount medium impact", 200_000, role.Cliente, model.ImpactMedium, true, model.LevelConfirm, "amount.medium"},
		{"medium amount low impact", 500_000, role.Cliente, model.ImpactLow, false, model.LevelNone, "none"},
		{"sensitive role small medium", 1, role.Capeto, model.ImpactMedium, true, model.LevelConfirm, "role.sensitive"},
		{"sensitive role zero amount", 0, role.Mbarete, model.ImpactMedium, false, model.LevelNone, "none"},
		{"non-sensitive small medium", 1, role.Vale, model.ImpactMedium, false, model.LevelNone, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Evaluate(tt.amount, tt.role, tt.impact)
			if got.Escalate != tt.escalate || got.MinLevel != tt.min || got.Rule != tt.rule {
				t.Errorf("got %+v, want escalate=%v min=%d rule=%s", got, tt.escalate, tt.min, tt.rule)
			}
		})
	}
}

func TestNewRejectsMisconfiguredThresholds(t *testing.T) {
	tests := []Thresholds{
		{Medium: -1, High: 100},
		{Medium: 10, High: -1},
		{Medium: 500, High: 100},
	}
	for _, th := range tests {
		if _, err := New(th, nil); !errors.Is(err, model.ErrEscalationMisconfigured) {
			t.Errorf("%+v: expected ErrEscalationMisconfigured, got %v", th, err)
		}
	}
}

func TestNewRejectsUnknownSensitiveRole(t *testing.T) {
	_, err := New(Thresholds{Medium: 1, High: 2}, []role.Role{role.Role(77)})
	if !errors.Is(err, model.ErrEscalationMisconfigured) {
		t.Fatalf("expected ErrEscalationMisconfigured, got %v", err)
	}
}

func TestEqualThresholdsAllowed(t *testing.T) {
	if _, err := New(Thresholds{Medium: 100, High: 100}, nil); err != nil {
		t.Fatalf("equal thresholds should be valid: %v", err)
	}
}
