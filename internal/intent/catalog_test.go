package intent

import (
	"errors"
	"testing"

	"github.com/ppiankov/cerebro/internal/model"
)

func TestEveryIDHasResponse(t *testing.T) {
	for _, id := range IDs() {
		r, err := DefaultResponse(id)
		if err != nil {
			t.Errorf("%s: %v", id, err)
			continue
		}
		if r.Message == "" {
			t.Errorf("%s: empty default message", id)
		}
	}
}

func TestUnknownIntentIsConfigError(t *testing.T) {
	_, err := DefaultResponse("wallet.teleport")
	if !errors.Is(err, model.ErrUnknownIntent) {
		t.Fatalf("expected ErrUnknownIntent, got %v", err)
	}
}

func TestDefaultResponseReturnsCopy(t *testing.T) {
	r1, _ := DefaultResponse(NavigateHome)
	r1.Actions[0].Label = "mutated"

	r2, _ := DefaultResponse(NavigateHome)
	if r2.Actions[0].Label == "mutated" {
		t.Fatal("catalog entry mutated through returned slice")
	}
}

func TestSensitiveExcludesNavigation(t *testing.T) {
	for _, id := range DefaultSensitive() {
		if id == NavigateHome {
			t.Fatal("navigation must stay reachable in red zones")
		}
		if !Known(id) {
			t.Errorf("sensitive intent %s has no catalog entry", id)
		}
	}
}

func TestFromMap(t *testing.T) {
	in := FromMap(map[string]any{
		"intent_id": " wallet_transfer ",
		"source":    "voice",
		"payload":   map[string]any{"amount": float64(150000), "to": "u-9"},
	})

	if in.ID != WalletTransfer {
		t.Errorf("expected trimmed id, got %q", in.ID)
	}
	if in.Source != model.SourceVoice {
		t.Errorf("expected voice source, got %s", in.Source)
	}
	amount, ok := PayloadAmount(in, "amount")
	if !ok || amount != 150000 {
		t.Errorf("expected amount 150000, got %d ok=%v", amount, ok)
	}
	if PayloadString(in, "to") != "u-9" {
		t.Errorf("expected payload to=u-9")
	}
}

func TestFromMapDefaults(t *testing.T) {
	in := FromMap(map[string]any{"source": "telepathy"})
	if in.Source != model.SourceSystem {
		t.Errorf("unknown source should default to system, got %s", in.Source)
	}
	if in.ID != "" {
		t.Errorf("expected empty id, got %q", in.ID)
	}
	if _, ok := PayloadAmount(in, "amount"); ok {
		t.Error("missing amount should not be ok")
	}
}

func TestPayloadAmountRejectsNegative(t *testing.T) {
	in := model.Intent{Payload: map[string]any{"amount": float64(-5)}}
	if _, ok := PayloadAmount(in, "amount"); ok {
		t.Error("negative amount should not be ok")
	}
}
