package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/policy"
	"github.com/ppiankov/cerebro/internal/role"
	"github.com/ppiankov/cerebro/internal/verification"
)

// DecideFunc produces the outcome for one case. Local runs evaluate an
// engine directly; smoke runs go through a remote server.
type DecideFunc func(c Case) (model.Outcome, error)

// EngineDecider evaluates cases against engine with a fixed clock. Each case
// is independent: verification is built from the case, never shared.
func EngineDecider(engine *policy.Engine, now time.Time) DecideFunc {
	return func(c Case) (model.Outcome, error) {
		r, _ := role.ParseRole(c.Context.Role)
		ctx := policy.Context{
			UserID:            c.Context.UserID,
			Role:              r,
			Verification:      c.Context.Verification(now),
			Point:             c.Context.Point,
			ActiveEscudos:     c.Context.ActiveEscudos,
			Amount:            c.Context.Amount,
			Impact:            model.ImpactClass(c.Context.Impact),
			PeriodTransferred: c.Context.PeriodTransferred,
		}
		d := engine.Decide(policy.Request{Intent: c.Intent, Context: ctx}, now)
		return model.Render(d), nil
	}
}

// Verification returns the verified state the case describes, relative to now.
func (cc CaseContext) Verification(now time.Time) verification.State {
	if cc.VerifiedLevel <= model.LevelNone {
		return verification.State{}
	}
	return verification.State{Level: cc.VerifiedLevel, VerifiedAt: now.Add(-cc.VerifiedAgo)}
}

// KindOf names the variant an outcome renders.
func KindOf(o model.Outcome) model.Kind {
	switch {
	case o.Allowed:
		return model.KindAllowed
	case o.RequiresValidation:
		return model.KindRequiresValidation
	default:
		return model.KindBlocked
	}
}

// Run evaluates every case in a scenario.
func Run(s *Scenario, decide DecideFunc) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		cr := CaseResult{
			Index:    i + 1,
			Name:     c.Name,
			Role:     c.Context.Role,
			Intent:   c.Intent.ID,
			Expected: strings.ToLower(c.Expect),
		}

		out, err := decide(c)
		if err != nil {
			cr.Actual = "error"
			cr.Detail = err.Error()
		} else {
			cr.Actual = string(KindOf(out))
			cr.Message = out.Message
			cr.Detail = check(c, out)
			cr.Passed = cr.Actual == cr.Expected && cr.Detail == ""
		}

		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func check(c Case, out model.Outcome) string {
	if c.ExpectLevel > 0 {
		if out.RequiredLevel == nil || *out.RequiredLevel != c.ExpectLevel {
			got := "none"
			if out.RequiredLevel != nil {
				got = fmt.Sprintf("%d", *out.RequiredLevel)
			}
			return fmt.Sprintf("expected level %d, got %s", c.ExpectLevel, got)
		}
	}
	if c.ExpectSeverity != "" && out.Severity != c.ExpectSeverity {
		return fmt.Sprintf("expected severity %s, got %s", c.ExpectSeverity, out.Severity)
	}
	if c.ExpectMessage != "" && !strings.Contains(out.Message, c.ExpectMessage) {
		return fmt.Sprintf("message %q does not contain %q", out.Message, c.ExpectMessage)
	}
	return ""
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = filepath.Base(path)
	}
	return &s, nil
}

// Glob expands a pattern into a sorted list of scenario files.
func Glob(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid scenario pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files match %q", pattern)
	}
	sort.Strings(files)
	return files, nil
}

// LoadAndRun loads a scenario file and policy, and runs it locally.
func LoadAndRun(path, policyPath string, now time.Time) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := policy.LoadConfig(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	engine, err := policy.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("build policy: %w", err)
	}

	result := Run(s, EngineDecider(engine, now))
	result.File = path
	return result, nil
}
