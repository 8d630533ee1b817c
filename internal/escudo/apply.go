package escudo

import (
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

// Active returns the escudos that are both requested and available, in
// catalog order. Request order and duplicates are irrelevant.
func (c *Catalog) Active(activeIDs []string, r role.Role, zone model.Semaphore) []Config {
	if len(activeIDs) == 0 {
		return nil
	}
	requested := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		requested[id] = true
	}
	var out []Config
	for _, e := range c.entries {
		if requested[e.ID] && e.allows(r, zone) {
			out = append(out, e)
		}
	}
	return out
}

// Unknown returns the requested ids that are not in the catalog.
func (c *Catalog) Unknown(activeIDs []string) []string {
	var out []string
	for _, id := range activeIDs {
		if !c.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Apply embellishes a finalized decision. Only Allowed is modified; Blocked
// and RequiresValidation come back exactly as given.
func (c *Catalog) Apply(base model.Decision, activeIDs []string, r role.Role, zone model.Semaphore) model.Decision {
	allowed, ok := base.(model.Allowed)
	if !ok {
		return base
	}

	active := c.Active(activeIDs, r, zone)
	if len(active) == 0 {
		return allowed
	}

	out := model.Allowed{
		Message:  allowed.Message,
		Actions:  make([]model.SuggestedAction, 0, len(allowed.Actions)),
		Severity: allowed.Severity,
	}
	out.Actions = append(out.Actions, allowed.Actions...)

	for _, e := range active {
		out.Message += e.Modifier.MessageSuffix
		for _, a := range e.Modifier.Actions {
			out.Actions = append(out.Actions, cloneAction(a))
		}
		if e.Layer == LayerSecurity && e.Modifier.Severity != "" {
			sev := out.Severity
			if sev == "" {
				sev = model.Green
			}
			out.Severity = sev.Raise(e.Modifier.Severity)
		}
	}
	return out
}

func cloneAction(a model.SuggestedAction) model.SuggestedAction {
	if a.Payload == nil {
		return a
	}
	p := make(map[string]string, len(a.Payload))
	for k, v := range a.Payload {
		p[k] = v
	}
	a.Payload = p
	return a
}
