// Package sim replays scenario cases under a candidate policy and reports
// every case whose outcome differs from the baseline policy.
package sim

import (
	"fmt"
	"time"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/scenario"
)

// Simulate decides every case in the scenario files under both policies.
// An empty baselinePath means the built-in defaults. Expectations in the
// scenario files are ignored; only the two policies are compared.
func Simulate(paths []string, baselinePath, candidatePath string, now time.Time) (*SimResult, error) {
	baseline, err := loadEngine(baselinePath)
	if err != nil {
		return nil, fmt.Errorf("baseline policy: %w", err)
	}
	candidate, err := loadEngine(candidatePath)
	if err != nil {
		return nil, fmt.Errorf("candidate policy: %w", err)
	}

	oldDecide := scenario.EngineDecider(baseline, now)
	newDecide := scenario.EngineDecider(candidate, now)

	result := &SimResult{
		BaselinePath:  baselinePath,
		CandidatePath: candidatePath,
		Changes:       []DiffEntry{},
	}

	for _, path := range paths {
		s, err := scenario.Load(path)
		if err != nil {
			return nil, err
		}
		for i, c := range s.Cases {
			result.TotalCases++

			oldOut, err := oldDecide(c)
			if err != nil {
				return nil, fmt.Errorf("%s case %d: %w", path, i+1, err)
			}
			newOut, err := newDecide(c)
			if err != nil {
				return nil, fmt.Errorf("%s case %d: %w", path, i+1, err)
			}

			if sameOutcome(oldOut, newOut) {
				continue
			}

			d := DiffEntry{
				Scenario:    s.Name,
				Index:       i + 1,
				Name:        c.Name,
				Role:        c.Context.Role,
				Intent:      c.Intent.ID,
				OldKind:     string(scenario.KindOf(oldOut)),
				NewKind:     string(scenario.KindOf(newOut)),
				OldLevel:    level(oldOut),
				NewLevel:    level(newOut),
				OldSeverity: string(oldOut.Severity),
				NewSeverity: string(newOut.Severity),
				OldReason:   oldOut.Reason,
				NewReason:   newOut.Reason,
			}
			result.Changes = append(result.Changes, d)
			result.ChangedCases++

			switch {
			case restrictiveness(newOut) > restrictiveness(oldOut):
				result.Stricter++
			case restrictiveness(newOut) < restrictiveness(oldOut):
				result.Looser++
			}
		}
	}

	return result, nil
}

func loadEngine(path string) (*policy.Engine, error) {
	var cfg *policy.PolicyConfig
	if path == "" {
		cfg = policy.DefaultConfig()
	} else {
		loaded, err := policy.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	return policy.NewEngine(cfg)
}

func sameOutcome(a, b model.Outcome) bool {
	return scenario.KindOf(a) == scenario.KindOf(b) &&
		level(a) == level(b) &&
		a.Severity == b.Severity &&
		a.Reason == b.Reason
}

func level(o model.Outcome) int {
	if o.RequiredLevel == nil {
		return 0
	}
	return int(*o.RequiredLevel)
}

// restrictiveness orders outcomes: allowed < requires_validation (by level)
// < blocked. Within allowed, higher severity ranks higher.
func restrictiveness(o model.Outcome) int {
	switch scenario.KindOf(o) {
	case model.KindBlocked:
		return 100
	case model.KindRequiresValidation:
		return 10 + level(o)
	default:
		return model.SemaphoreRank[o.Severity]
	}
}
