package alert

import (
	"encoding/json"
	"fmt"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, ev Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(ev)
	case "pagerduty":
		return formatPagerDuty(ev)
	default:
		return json.Marshal(ev)
	}
}

func formatSlack(ev Event) ([]byte, error) {
	fields := []any{
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Intent:* %s", ev.Intent)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Role:* %s", ev.Role)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*User:* %s", ev.UserID)},
		map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Reason:* %s", ev.Reason)},
	}
	if ev.TerritoryID != "" {
		fields = append(fields, map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Territory:* %s", ev.TerritoryID)})
	}
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("cerebro: %s", ev.Kind),
				},
			},
			map[string]any{"type": "section", "fields": fields},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(ev Event) ([]byte, error) {
	severity := "info"
	switch {
	case ev.Fault:
		severity = "error"
	case ev.Severity == "red":
		severity = "warning"
	}

	payload := map[string]any{
		"event_action": "trigger",
		"dedup_key":    ev.DecisionID,
		"payload": map[string]any{
			"summary":  fmt.Sprintf("cerebro %s: %s (%s)", ev.Kind, ev.Intent, ev.Role),
			"severity": severity,
			"source":   "cerebro",
			"custom_details": map[string]any{
				"user_id":        ev.UserID,
				"reason":         ev.Reason,
				"territory_id":   ev.TerritoryID,
				"required_level": ev.RequiredLevel,
				"policy_hash":    ev.PolicyHash,
			},
		},
	}
	return json.Marshal(payload)
}
