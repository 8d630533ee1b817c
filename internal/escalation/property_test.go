package escalation

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

var impacts = []model.ImpactClass{model.ImpactLow, model.ImpactMedium, model.ImpactHigh}

// Property: holding role and impact fixed, raising the amount never turns an
// escalation off and never lowers the minimum level.
func TestEscalationMonotonicInAmount(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	p := Default()

	properties.Property("escalation is monotonic in amount", prop.ForAll(
		func(a, delta int64, roleIdx, impactIdx int) bool {
			r := role.All()[roleIdx]
			impact := impacts[impactIdx]

			lo := p.Evaluate(a, r, impact)
			hi := p.Evaluate(a+delta, r, impact)

			if lo.Escalate && !hi.Escalate {
				return false
			}
			return hi.MinLevel >= lo.MinLevel
		},
		gen.Int64Range(0, 5_000_000),
		gen.Int64Range(0, 5_000_000),
		gen.IntRange(0, len(role.All())-1),
		gen.IntRange(0, len(impacts)-1),
	))

	properties.TestingRun(t)
}
