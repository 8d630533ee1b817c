package sim

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DiffEntry is one case whose outcome changed.
type DiffEntry struct {
	Scenario    string `json:"scenario"`
	Index       int    `json:"index"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role"`
	Intent      string `json:"intent"`
	OldKind     string `json:"old_kind"`
	NewKind     string `json:"new_kind"`
	OldLevel    int    `json:"old_level,omitempty"`
	NewLevel    int    `json:"new_level,omitempty"`
	OldSeverity string `json:"old_severity"`
	NewSeverity string `json:"new_severity"`
	OldReason   string `json:"old_reason,omitempty"`
	NewReason   string `json:"new_reason,omitempty"`
}

// SimResult holds the complete simulation output.
type SimResult struct {
	BaselinePath  string      `json:"baseline_path"`
	CandidatePath string      `json:"candidate_path"`
	TotalCases    int         `json:"total_cases"`
	ChangedCases  int         `json:"changed_cases"`
	Stricter      int         `json:"stricter"`
	Looser        int         `json:"looser"`
	Changes       []DiffEntry `json:"changes"`
}

func describe(kind string, level int, severity string) string {
	switch kind {
	case "requires_validation":
		return fmt.Sprintf("%s(L%d)", kind, level)
	case "allowed":
		return fmt.Sprintf("%s(%s)", kind, severity)
	default:
		return kind
	}
}

// FormatText renders the simulation result as human-readable text.
func FormatText(r *SimResult) string {
	var b strings.Builder

	baseline := r.BaselinePath
	if baseline == "" {
		baseline = "defaults"
	}
	fmt.Fprintf(&b, "Simulating %s against %s over %d cases...\n", r.CandidatePath, baseline, r.TotalCases)

	if len(r.Changes) == 0 {
		b.WriteString("\nNo changes detected.\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, d := range r.Changes {
		label := d.Intent
		if d.Name != "" {
			label = d.Name
		}
		if len(label) > 40 {
			label = label[:37] + "..."
		}
		fmt.Fprintf(&b, "  CHANGED  %-10s %-40s %s → %s\n",
			d.Role, label,
			describe(d.OldKind, d.OldLevel, d.OldSeverity),
			describe(d.NewKind, d.NewLevel, d.NewSeverity))
	}

	fmt.Fprintf(&b, "\n%d of %d cases changed.", r.ChangedCases, r.TotalCases)
	if r.Stricter > 0 || r.Looser > 0 {
		fmt.Fprintf(&b, " %d stricter, %d looser.", r.Stricter, r.Looser)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders the simulation result as JSON.
func FormatJSON(r *SimResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sim result: %w", err)
	}
	return string(data), nil
}
