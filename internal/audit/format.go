package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a replay as a text timeline, one line per entry.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return "No entries found.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s – %s UTC\n",
		formatTime(result.Summary.FirstTimestamp, "2006-01-02 15:04:05"),
		formatTime(result.Summary.LastTimestamp, "15:04:05"))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTime(e.Timestamp, "15:04:05")
		if e.Type == TypeVerification {
			fmt.Fprintf(&b, "%-10s %-20s %-12s L%d %s\n", ts, "VERIFICATION", truncate(e.UserID, 12), e.RequiredLevel, e.Reason)
			continue
		}
		if e.Type == TypeReload {
			fmt.Fprintf(&b, "%-10s %-20s %s\n", ts, "POLICY RELOAD", e.PolicyHash)
			continue
		}
		zone := e.Zone.State
		if e.Zone.TerritoryID != "" {
			zone += ":" + e.Zone.TerritoryID
		}
		fmt.Fprintf(&b, "%-10s %-20s %-12s %-8s %-18s %-22s L%d\n",
			ts, strings.ToUpper(e.Kind), truncate(e.UserID, 12), e.Role,
			truncate(e.Intent, 18), truncate(zone, 22), e.RequiredLevel)
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

// FormatJSON renders a replay as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatTime(ts, layout string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format(layout)
}

func formatSummary(s Summary) string {
	var parts []string
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(s.Allowed, "allowed")
	add(s.RequiresValidation, "requires_validation")
	add(s.Blocked, "blocked")
	add(s.Faults, "faults")
	add(s.Verifications, "verifications")
	return fmt.Sprintf("Summary: %d entries | %s\n", s.Total, strings.Join(parts, ", "))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
