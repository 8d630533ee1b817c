package zone

import (
	"fmt"
	"math"

	"github.com/ppiankov/cerebro/internal/model"
)

// Resolution is the outcome of classifying a point or territory.
type Resolution struct {
	State       model.Semaphore `json:"state"`
	TerritoryID string          `json:"territory_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Covered     bool            `json:"covered"`
}

// Resolver maps points to semaphore states. Immutable after construction and
// safe for concurrent use.
type Resolver struct {
	territories []Territory
	index       map[string]int
	overrides   map[string]model.Semaphore
	uncovered   model.Semaphore
}

// New validates territories and builds a Resolver. uncovered is the state for
// points outside every zone; empty means green.
func New(territories []Territory, uncovered model.Semaphore) (*Resolver, error) {
	if uncovered == "" {
		uncovered = model.Green
	}
	if _, ok := model.SemaphoreRank[uncovered]; !ok {
		return nil, fmt.Errorf("%w: invalid uncovered default %q", model.ErrConfig, uncovered)
	}

	r := &Resolver{
		territories: make([]Territory, 0, len(territories)),
		index:       make(map[string]int, len(territories)),
		overrides:   map[string]model.Semaphore{},
		uncovered:   uncovered,
	}

	for _, t := range territories {
		if t.ID == "" {
			return nil, fmt.Errorf("%w: territory with empty id", model.ErrConfig)
		}
		if _, dup := r.index[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate territory id %q", model.ErrConfig, t.ID)
		}
		if _, ok := model.SemaphoreRank[t.Semaphore]; !ok {
			return nil, fmt.Errorf("%w: territory %q has invalid semaphore %q", model.ErrConfig, t.ID, t.Semaphore)
		}
		for i, z := range t.Zones {
			if !ValidPoint(z.Center) {
				return nil, fmt.Errorf("%w: territory %q zone %d has invalid center", model.ErrConfig, t.ID, i)
			}
			if !(z.RadiusMeters > 0) || math.IsInf(z.RadiusMeters, 0) {
				return nil, fmt.Errorf("%w: territory %q zone %d has non-positive radius", model.ErrConfig, t.ID, i)
			}
		}
		zones := make([]Zone, len(t.Zones))
		copy(zones, t.Zones)
		t.Zones = zones
		r.index[t.ID] = len(r.territories)
		r.territories = append(r.territories, t)
	}

	return r, nil
}

// WithOverrides returns a copy of the resolver whose territory states are
// replaced by overrides. For tests and operations; the receiver is unchanged.
func (r *Resolver) WithOverrides(overrides map[string]model.Semaphore) (*Resolver, error) {
	next := &Resolver{
		territories: r.territories,
		index:       r.index,
		overrides:   make(map[string]model.Semaphore, len(r.overrides)+len(overrides)),
		uncovered:   r.uncovered,
	}
	for id, s := range r.overrides {
		next.overrides[id] = s
	}
	for id, s := range overrides {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("%w: override for unknown territory %q", model.ErrConfig, id)
		}
		if _, ok := model.SemaphoreRank[s]; !ok {
			return nil, fmt.Errorf("%w: override for %q has invalid state %q", model.ErrConfig, id, s)
		}
		next.overrides[id] = s
	}
	return next, nil
}

// Resolve classifies a point. Territories are scanned in declared order and
// the first containing zone wins. Points outside every zone get the uncovered
// default. Malformed coordinates resolve red together with ErrZoneUnresolvable.
func (r *Resolver) Resolve(p model.GeoPoint) (Resolution, error) {
	if !ValidPoint(p) {
		res := Resolution{State: model.Red, Reason: model.GenericBlockMessage}
		return res, fmt.Errorf("%w: lat=%v lng=%v", model.ErrZoneUnresolvable, p.Lat, p.Lng)
	}

	for i := range r.territories {
		t := &r.territories[i]
		for _, z := range t.Zones {
			if z.Contains(p) {
				return r.resolution(t), nil
			}
		}
	}

	return Resolution{State: r.uncovered, Reason: reasonFor(r.uncovered, "")}, nil
}

// ResolveByID returns a territory's state without a point, for read-only views.
func (r *Resolver) ResolveByID(territoryID string) (Resolution, error) {
	i, ok := r.index[territoryID]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: unknown territory %q", model.ErrConfig, territoryID)
	}
	return r.resolution(&r.territories[i]), nil
}

// Territories returns a copy of the configured territories in match order.
func (r *Resolver) Territories() []Territory {
	out := make([]Territory, len(r.territories))
	copy(out, r.territories)
	return out
}

// Uncovered returns the state applied to points outside every zone.
func (r *Resolver) Uncovered() model.Semaphore {
	return r.uncovered
}

func (r *Resolver) resolution(t *Territory) Resolution {
	state := t.Semaphore
	if o, ok := r.overrides[t.ID]; ok {
		state = o
	}
	return Resolution{
		State:       state,
		TerritoryID: t.ID,
		Reason:      reasonFor(state, t.Name),
		Covered:     true,
	}
}

func reasonFor(state model.Semaphore, name string) string {
	if name == "" {
		name = "esta zona"
	}
	switch state {
	case model.Red:
		return fmt.Sprintf("Zona roja (%s): esta acción no está disponible aquí por seguridad.", name)
	case model.Yellow:
		return fmt.Sprintf("Zona amarilla (%s): se requiere confirmación adicional.", name)
	default:
		return ""
	}
}
