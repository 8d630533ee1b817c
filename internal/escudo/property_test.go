package escudo

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

var (
	allIDs = []string{"fintech", "salud", "legal", "guardian", "unknown"}
	zones  = []model.Semaphore{model.Green, model.Yellow, model.Red}
)

func pick(mask uint8) []string {
	var out []string
	for i, id := range allIDs {
		if mask&(1<<i) != 0 {
			out = append(out, id)
		}
	}
	return out
}

// Property: no combination of active escudos turns a non-Allowed decision into
// anything else.
func TestEscudosNeverUpgradeNonAllowed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	c := DefaultCatalog()

	properties.Property("blocked and requires-validation survive any escudo set", prop.ForAll(
		func(mask uint8, roleIdx, zoneIdx, level int, blocked bool) bool {
			var base model.Decision
			if blocked {
				base = model.Blocked{Reason: "denied"}
			} else {
				base = model.RequiresValidation{Level: model.Level(level), Reason: "verify"}
			}

			got := c.Apply(base, pick(mask), role.All()[roleIdx], zones[zoneIdx])
			if got.Kind() != base.Kind() {
				return false
			}
			if rv, ok := got.(model.RequiresValidation); ok {
				return rv.Level == model.Level(level)
			}
			return true
		},
		gen.UInt8Range(0, 31),
		gen.IntRange(0, len(role.All())-1),
		gen.IntRange(0, len(zones)-1),
		gen.IntRange(1, 3),
		gen.Bool(),
	))

	properties.Property("allowed stays allowed and never loses base actions", prop.ForAll(
		func(mask uint8, roleIdx, zoneIdx int) bool {
			base := model.Allowed{
				Message:  "ok",
				Actions:  []model.SuggestedAction{{Type: "navigate", Label: "x"}},
				Severity: zones[zoneIdx],
			}
			got, ok := c.Apply(base, pick(mask), role.All()[roleIdx], zones[zoneIdx]).(model.Allowed)
			if !ok {
				return false
			}
			if len(got.Actions) < 1 || got.Actions[0].Label != "x" {
				return false
			}
			return model.SemaphoreRank[got.Severity] >= model.SemaphoreRank[base.Severity]
		},
		gen.UInt8Range(0, 31),
		gen.IntRange(0, len(role.All())-1),
		gen.IntRange(0, len(zones)-1),
	))

	properties.TestingRun(t)
}
