package policydiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

var sections = []struct {
	prefix string
	title  string
}{
	{"escalation.", "Escalation"},
	{"freshness.", "Freshness"},
	{"zones.", "Zones"},
}

// FormatText renders the diff result as human-readable text.
func FormatText(r *DiffResult) string {
	if !r.HasChanges {
		return fmt.Sprintf("Policy diff: %s → %s\n\nNo changes detected.\n", r.OldPath, r.NewPath)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Policy diff: %s → %s\n", r.OldPath, r.NewPath)

	for _, sec := range sections {
		changes := filterChanges(r.Changes, sec.prefix)
		if len(changes) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n  %s:\n", sec.title)
		for _, c := range changes {
			name := strings.TrimPrefix(c.Field, sec.prefix)
			fmt.Fprintf(&b, "    %-28s %s → %s", name+":", c.Old, c.New)
			if c.Comment != "" {
				fmt.Fprintf(&b, "  (%s)", c.Comment)
			}
			b.WriteString("\n")
		}
	}

	if len(r.SetChanges) > 0 {
		b.WriteString("\n")
		for _, sc := range r.SetChanges {
			mark := "+"
			if sc.Type == "removed" {
				mark = "-"
			}
			fmt.Fprintf(&b, "  %s: %s %s\n", sc.Section, mark, sc.Item)
		}
	}

	return b.String()
}

// FormatJSON renders the diff result as JSON.
func FormatJSON(r *DiffResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diff result: %w", err)
	}
	return string(data), nil
}

func filterChanges(changes []Change, prefix string) []Change {
	var out []Change
	for _, c := range changes {
		if strings.HasPrefix(c.Field, prefix) {
			out = append(out, c)
		}
	}
	return out
}
