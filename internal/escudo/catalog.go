package escudo

import (
	"fmt"

	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

// Layer groups escudos by what they are allowed to touch.
type Layer string

const (
	LayerBenefit  Layer = "benefit"
	LayerSecurity Layer = "security"
)

// Modifier is what an escudo adds to an allowed decision.
type Modifier struct {
	MessageSuffix string                  `yaml:"message_suffix,omitempty" json:"message_suffix,omitempty"`
	Actions       []model.SuggestedAction `yaml:"actions,omitempty" json:"actions,omitempty"`
	// Severity is honored only for the security layer and can only raise.
	Severity model.Semaphore `yaml:"severity,omitempty" json:"severity,omitempty"`
}

// Config is one catalog entry.
type Config struct {
	ID                string            `yaml:"id" json:"id"`
	Name              string            `yaml:"name,omitempty" json:"name,omitempty"`
	AllowedRoles      []role.Role       `yaml:"-" json:"-"`
	AllowedZoneStates []model.Semaphore `yaml:"allowed_zone_states,omitempty" json:"allowed_zone_states,omitempty"`
	Layer             Layer             `yaml:"layer" json:"layer"`
	Modifier          Modifier          `yaml:"modifier" json:"modifier"`
}

func (c Config) allows(r role.Role, zone model.Semaphore) bool {
	roleOK := false
	for _, ar := range c.AllowedRoles {
		if ar == r {
			roleOK = true
			break
		}
	}
	if !roleOK {
		return false
	}
	if len(c.AllowedZoneStates) == 0 {
		return true
	}
	for _, z := range c.AllowedZoneStates {
		if z == zone {
			return true
		}
	}
	return false
}

// Catalog is an ordered escudo list. Order fixes message concatenation and
// action order. Immutable after New.
type Catalog struct {
	entries []Config
	index   map[string]int
}

// New validates entries and builds a Catalog preserving their order.
func New(entries []Config) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Config, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("%w: escudo with empty id", model.ErrConfig)
		}
		if _, dup := c.index[e.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate escudo id %q", model.ErrConfig, e.ID)
		}
		if e.Layer != LayerBenefit && e.Layer != LayerSecurity {
			return nil, fmt.Errorf("%w: escudo %q has invalid layer %q", model.ErrConfig, e.ID, e.Layer)
		}
		for _, r := range e.AllowedRoles {
			if !r.Valid() {
				return nil, fmt.Errorf("%w: escudo %q allows unknown role", model.ErrConfig, e.ID)
			}
		}
		for _, z := range e.AllowedZoneStates {
			if _, ok := model.SemaphoreRank[z]; !ok {
				return nil, fmt.Errorf("%w: escudo %q has invalid zone state %q", model.ErrConfig, e.ID, z)
			}
		}
		if s := e.Modifier.Severity; s != "" {
			if _, ok := model.SemaphoreRank[s]; !ok {
				return nil, fmt.Errorf("%w: escudo %q has invalid severity %q", model.ErrConfig, e.ID, s)
			}
		}
		c.index[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Entries returns the catalog in order.
func (c *Catalog) Entries() []Config {
	out := make([]Config, len(c.entries))
	copy(out, c.entries)
	return out
}

// Has reports whether id is in the catalog.
func (c *Catalog) Has(id string) bool {
	_, ok := c.index[id]
	return ok
}

// AvailableFor lists escudos a role may activate in a zone, in catalog order.
func (c *Catalog) AvailableFor(r role.Role, zone model.Semaphore) []Config {
	var out []Config
	for _, e := range c.entries {
		if e.allows(r, zone) {
			out = append(out, e)
		}
	}
	return out
}
