package scenario

import (
	"time"

	"github.com/ppiankov/cerebro/internal/model"
)

// CaseContext is the user context for one case, in wire form.
type CaseContext struct {
	UserID        string          `yaml:"user_id,omitempty"`
	Role          string          `yaml:"role"`
	VerifiedLevel model.Level     `yaml:"verified_level,omitempty"`
	VerifiedAgo   time.Duration   `yaml:"verified_ago,omitempty"`
	Point         *model.GeoPoint `yaml:"point,omitempty"`
	ActiveEscudos []string        `yaml:"active_escudos,omitempty"`
	Amount        *int64          `yaml:"amount,omitempty"`
	Impact        string          `yaml:"impact,omitempty"`
	// PeriodTransferred stands in for the wallet ledger.
	PeriodTransferred int64 `yaml:"period_transferred,omitempty"`
}

// Case is one decision under test.
type Case struct {
	Name    string       `yaml:"name,omitempty"`
	Intent  model.Intent `yaml:"intent"`
	Context CaseContext  `yaml:"context"`
	// Expect is the decision kind: allowed, requires_validation or blocked.
	Expect string `yaml:"expect"`
	// ExpectLevel is checked for requires_validation when non-zero.
	ExpectLevel model.Level `yaml:"expect_level,omitempty"`
	// ExpectMessage must be a substring of the rendered message.
	ExpectMessage  string          `yaml:"expect_message,omitempty"`
	ExpectSeverity model.Semaphore `yaml:"expect_severity,omitempty"`
}

// Scenario is a named collection of decision cases.
type Scenario struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Name     string `json:"name,omitempty"`
	Passed   bool   `json:"passed"`
	Role     string `json:"role"`
	Intent   string `json:"intent"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Detail   string `json:"detail,omitempty"`
	Message  string `json:"message"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
