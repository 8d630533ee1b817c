package alert

// Webhook is an alert destination.
type Webhook struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // decision kinds: "blocked", "requires_validation"; or "fault"
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
}

// Event is the payload posted to webhooks for one decision.
type Event struct {
	Timestamp     string `json:"timestamp"`
	DecisionID    string `json:"decision_id"`
	UserID        string `json:"user_id"`
	Role          string `json:"role"`
	Intent        string `json:"intent"`
	Kind          string `json:"kind"`
	Reason        string `json:"reason"`
	Severity      string `json:"severity"`
	RequiredLevel int    `json:"required_level,omitempty"`
	TerritoryID   string `json:"territory_id,omitempty"`
	PolicyHash    string `json:"policy_hash"`
	Fault         bool   `json:"fault,omitempty"` // blocked by an internal error
}

func (w Webhook) wants(ev Event) bool {
	for _, e := range w.Events {
		if e == ev.Kind || (ev.Fault && e == "fault") {
			return true
		}
	}
	return false
}
