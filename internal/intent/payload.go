package intent

import (
	"strings"

	"github.com/ppiankov/cerebro/internal/model"
)

// FromMap builds an Intent from a raw decoded map with defensive coercion.
// Unknown sources default to system; a missing intent_id yields an empty ID,
// which no role permits.
func FromMap(m map[string]any) model.Intent {
	in := model.Intent{Source: model.SourceSystem, Payload: map[string]any{}}
	if m == nil {
		return in
	}

	if id, ok := m["intent_id"].(string); ok {
		in.ID = strings.TrimSpace(id)
	}

	if s, ok := m["source"].(string); ok {
		switch model.Source(s) {
		case model.SourceChip, model.SourceSystem, model.SourceVoice:
			in.Source = model.Source(s)
		}
	}

	if p, ok := m["payload"].(map[string]any); ok {
		for k, v := range p {
			in.Payload[k] = v
		}
	}

	return in
}

// PayloadString returns a string payload field, or "" when absent or mistyped.
func PayloadString(in model.Intent, key string) string {
	if in.Payload == nil {
		return ""
	}
	s, _ := in.Payload[key].(string)
	return s
}

// PayloadAmount returns a numeric payload field as int64 guaraníes.
// JSON numbers decode as float64; negative or mistyped values return ok=false.
func PayloadAmount(in model.Intent, key string) (int64, bool) {
	if in.Payload == nil {
		return 0, false
	}
	switch n := in.Payload[key].(type) {
	case int:
		return int64(n), n >= 0
	case int64:
		return n, n >= 0
	case float64:
		return int64(n), n >= 0
	default:
		return 0, false
	}
}
