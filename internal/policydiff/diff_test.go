package policydiff

import (
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/zone"
)

func findChange(r *DiffResult, field string) (Change, bool) {
	for _, c := range r.Changes {
		if c.Field == field {
			return c, true
		}
	}
	return Change{}, false
}

func TestIdenticalPoliciesNoChanges(t *testing.T) {
	r := Diff(policy.DefaultConfig(), policy.DefaultConfig())
	if r.HasChanges {
		t.Errorf("expected no changes, got %d changes + %d set changes",
			len(r.Changes), len(r.SetChanges))
	}
}

func TestLoweredThresholdIsStricter(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	b.Escalation.HighThreshold = 800_000

	r := Diff(a, b)
	c, ok := findChange(r, "escalation.high_threshold")
	if !ok {
		t.Fatal("high_threshold change not found")
	}
	if c.Old != "1000000" || c.New != "800000" {
		t.Errorf("expected 1000000→800000, got %s→%s", c.Old, c.New)
	}
	if c.Comment != "stricter" {
		t.Errorf("expected 'stricter', got %q", c.Comment)
	}
}

func TestLongerTTLIsLooser(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	b.Freshness.Face = 30 * time.Minute

	c, ok := findChange(Diff(a, b), "freshness.level_2")
	if !ok {
		t.Fatal("level_2 change not found")
	}
	if c.New != "30m0s" || c.Comment != "looser" {
		t.Errorf("unexpected change %+v", c)
	}
}

func TestTerritoryOverrideDetected(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	b.Zones.Overrides = map[string]model.Semaphore{"villa_morra": model.Red}

	c, ok := findChange(Diff(a, b), "zones.territories.villa_morra")
	if !ok {
		t.Fatal("territory state change not found")
	}
	if c.Old != "green" || c.New != "red" || c.Comment != "stricter" {
		t.Errorf("unexpected change %+v", c)
	}
}

func TestUncoveredDefaultEmptyMeansGreen(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	a.Zones.UncoveredDefault = ""
	b.Zones.UncoveredDefault = model.Green

	if r := Diff(a, b); r.HasChanges {
		t.Errorf("empty and green should be equal, got %+v", r.Changes)
	}
}

func TestTerritoryAddedAndRemoved(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	b.Zones.Territories = append(b.Zones.Territories[1:], zone.Territory{
		ID:        "luque",
		Name:      "Luque",
		Semaphore: model.Green,
	})

	r := Diff(a, b)
	var added, removed bool
	for _, sc := range r.SetChanges {
		if sc.Section != "zones.territories" {
			continue
		}
		if sc.Type == "added" && sc.Item == "luque" {
			added = true
		}
		if sc.Type == "removed" && sc.Item == "chacarita" {
			removed = true
		}
	}
	if !added || !removed {
		t.Errorf("expected luque added and chacarita removed, got %+v", r.SetChanges)
	}
}

func TestSensitiveIntentRemoved(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	b.SensitiveIntents = []string{"wallet_transfer"}

	r := Diff(a, b)
	removed := 0
	for _, sc := range r.SetChanges {
		if sc.Section == "sensitive_intents" && sc.Type == "removed" {
			removed++
		}
	}
	if removed != len(a.SensitiveIntents)-1 {
		t.Errorf("expected %d removals, got %d", len(a.SensitiveIntents)-1, removed)
	}
}

func TestFormatText(t *testing.T) {
	a := policy.DefaultConfig()
	b := policy.DefaultConfig()
	b.Escalation.MediumThreshold = 100_000
	b.Escudos = b.Escudos[1:]

	r := Diff(a, b)
	r.OldPath, r.NewPath = "old.yaml", "new.yaml"
	out := FormatText(r)

	for _, want := range []string{"old.yaml → new.yaml", "Escalation:", "medium_threshold:", "(stricter)", "escudos: - fintech"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTextNoChanges(t *testing.T) {
	out := FormatText(&DiffResult{OldPath: "a", NewPath: "b"})
	if !strings.Contains(out, "No changes detected.") {
		t.Errorf("unexpected output: %s", out)
	}
}
