package audit

// Entry types.
const (
	TypeDecision     = "decision"
	TypeVerification = "verification"
	TypeReload       = "policy_reload"
)

// Zone is the zone resolution recorded with a decision.
type Zone struct {
	State       string `json:"state"`
	TerritoryID string `json:"territory_id,omitempty"`
}

// Entry is one line in the hash-chained JSONL audit log.
// All fields are concrete types (no map[string]any) so json.Marshal output is
// deterministic and hashes are reproducible.
type Entry struct {
	Timestamp     string   `json:"ts"`
	Type          string   `json:"type"`
	DecisionID    string   `json:"decision_id,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	Role          string   `json:"role,omitempty"`
	Intent        string   `json:"intent,omitempty"`
	Source        string   `json:"source,omitempty"`
	Kind          string   `json:"kind,omitempty"`
	Step          string   `json:"step,omitempty"`
	RequiredLevel int      `json:"required_level,omitempty"`
	Severity      string   `json:"severity,omitempty"`
	Zone          Zone     `json:"zone"`
	Amount        int64    `json:"amount,omitempty"`
	Escudos       []string `json:"escudos,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	// Cause is the internal error behind a fault. Never shown to users.
	Cause      string `json:"cause,omitempty"`
	PolicyHash string `json:"policy_hash"`
	PrevHash   string `json:"prev_hash"`
}
