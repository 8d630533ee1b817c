package policydiff

import (
	"fmt"
	"sort"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
)

// Change represents a scalar field change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// SetChange is an addition to or removal from a list section.
type SetChange struct {
	Type    string `json:"type"` // "added" or "removed"
	Section string `json:"section"`
	Item    string `json:"item"`
}

// DiffResult holds the comparison of two PolicyConfigs.
type DiffResult struct {
	OldPath    string      `json:"old_path"`
	NewPath    string      `json:"new_path"`
	Changes    []Change    `json:"changes"`
	SetChanges []SetChange `json:"set_changes"`
	HasChanges bool        `json:"has_changes"`
}

// Diff compares two PolicyConfigs and returns the differences.
func Diff(old, new *policy.PolicyConfig) *DiffResult {
	r := &DiffResult{}

	// Lower thresholds escalate sooner.
	diffInt(r, "escalation.medium_threshold", old.Escalation.MediumThreshold, new.Escalation.MediumThreshold, false)
	diffInt(r, "escalation.high_threshold", old.Escalation.HighThreshold, new.Escalation.HighThreshold, false)
	diffSet(r, "escalation.sensitive_roles", old.Escalation.SensitiveRoles, new.Escalation.SensitiveRoles)

	// Shorter TTLs force re-verification sooner.
	diffDuration(r, "freshness.level_1", old.Freshness.Confirm, new.Freshness.Confirm)
	diffDuration(r, "freshness.level_2", old.Freshness.Face, new.Freshness.Face)
	diffDuration(r, "freshness.level_3", old.Freshness.Strong, new.Freshness.Strong)

	diffSemaphore(r, "zones.uncovered_default", old.Zones.UncoveredDefault, new.Zones.UncoveredDefault)
	diffTerritories(r, old, new)

	diffSet(r, "sensitive_intents", old.SensitiveIntents, new.SensitiveIntents)
	diffSet(r, "escudos", escudoIDs(old), escudoIDs(new))

	r.HasChanges = len(r.Changes) > 0 || len(r.SetChanges) > 0
	return r
}

func diffInt(r *DiffResult, field string, old, new int64, higherIsStricter bool) {
	if old == new {
		return
	}
	r.Changes = append(r.Changes, Change{
		Field:   field,
		Old:     fmt.Sprintf("%d", old),
		New:     fmt.Sprintf("%d", new),
		Comment: comment(new > old, higherIsStricter),
	})
}

func diffDuration(r *DiffResult, field string, old, new time.Duration) {
	if old == new {
		return
	}
	r.Changes = append(r.Changes, Change{
		Field:   field,
		Old:     old.String(),
		New:     new.String(),
		Comment: comment(new > old, false),
	})
}

func diffSemaphore(r *DiffResult, field string, old, new model.Semaphore) {
	if old == "" {
		old = model.Green
	}
	if new == "" {
		new = model.Green
	}
	if old == new {
		return
	}
	r.Changes = append(r.Changes, Change{
		Field:   field,
		Old:     string(old),
		New:     string(new),
		Comment: comment(model.SemaphoreRank[new] > model.SemaphoreRank[old], true),
	})
}

func comment(increased, higherIsStricter bool) string {
	if increased == higherIsStricter {
		return "stricter"
	}
	return "looser"
}

// effectiveStates maps territory ID to its state after overrides.
func effectiveStates(cfg *policy.PolicyConfig) map[string]model.Semaphore {
	out := make(map[string]model.Semaphore, len(cfg.Zones.Territories))
	for _, t := range cfg.Zones.Territories {
		state := t.Semaphore
		if o, ok := cfg.Zones.Overrides[t.ID]; ok {
			state = o
		}
		out[t.ID] = state
	}
	return out
}

func diffTerritories(r *DiffResult, old, new *policy.PolicyConfig) {
	oldStates := effectiveStates(old)
	newStates := effectiveStates(new)

	var oldIDs, newIDs []string
	for _, t := range old.Zones.Territories {
		oldIDs = append(oldIDs, t.ID)
	}
	for _, t := range new.Zones.Territories {
		newIDs = append(newIDs, t.ID)
		if prev, ok := oldStates[t.ID]; ok {
			diffSemaphore(r, "zones.territories."+t.ID, prev, newStates[t.ID])
		}
	}
	diffSet(r, "zones.territories", oldIDs, newIDs)
}

func diffSet(r *DiffResult, section string, oldItems, newItems []string) {
	oldSet := make(map[string]bool, len(oldItems))
	for _, k := range oldItems {
		oldSet[k] = true
	}
	newSet := make(map[string]bool, len(newItems))
	for _, k := range newItems {
		newSet[k] = true
	}

	added := make([]string, 0)
	for _, k := range newItems {
		if !oldSet[k] {
			added = append(added, k)
		}
	}
	removed := make([]string, 0)
	for _, k := range oldItems {
		if !newSet[k] {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	for _, k := range added {
		r.SetChanges = append(r.SetChanges, SetChange{Type: "added", Section: section, Item: k})
	}
	for _, k := range removed {
		r.SetChanges = append(r.SetChanges, SetChange{Type: "removed", Section: section, Item: k})
	}
}

func escudoIDs(cfg *policy.PolicyConfig) []string {
	ids := make([]string, 0, len(cfg.Escudos))
	for _, e := range cfg.Escudos {
		ids = append(ids, e.ID)
	}
	return ids
}
