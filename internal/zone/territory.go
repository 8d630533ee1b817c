package zone

import "github.com/ppiankov/cerebro/internal/model"

// Zone is a circular geofence.
type Zone struct {
	Center       model.GeoPoint `yaml:"center" json:"center"`
	RadiusMeters float64        `yaml:"radius_meters" json:"radius_meters"`
}

// Contains reports whether p lies inside the zone. The boundary counts as inside.
func (z Zone) Contains(p model.GeoPoint) bool {
	return Distance(z.Center, p) <= z.RadiusMeters
}

// Territory is a named group of zones sharing one semaphore state.
type Territory struct {
	ID        string          `yaml:"id" json:"id"`
	Name      string          `yaml:"name" json:"name"`
	Zones     []Zone          `yaml:"zones" json:"zones"`
	Semaphore model.Semaphore `yaml:"semaphore" json:"semaphore"`
}

// DefaultTerritories is the built-in Gran Asunción coverage, in match order.
// Restrictive territories come first so overlapping circles resolve to the
// stricter state.
func DefaultTerritories() []Territory {
	return []Territory{
		{
			ID:        "chacarita",
			Name:      "Chacarita",
			Semaphore: model.Red,
			Zones: []Zone{
				{Center: model.GeoPoint{Lat: -25.2783, Lng: -57.6425}, RadiusMeters: 700},
			},
		},
		{
			ID:        "mercado4",
			Name:      "Mercado 4",
			Semaphore: model.Yellow,
			Zones: []Zone{
				{Center: model.GeoPoint{Lat: -25.2958, Lng: -57.6283}, RadiusMeters: 600},
			},
		},
		{
			ID:        "terminal",
			Name:      "Terminal de Ómnibus",
			Semaphore: model.Yellow,
			Zones: []Zone{
				{Center: model.GeoPoint{Lat: -25.3105, Lng: -57.6060}, RadiusMeters: 450},
			},
		},
		{
			ID:        "centro",
			Name:      "Asunción Centro",
			Semaphore: model.Green,
			Zones: []Zone{
				{Center: model.GeoPoint{Lat: -25.2822, Lng: -57.6351}, RadiusMeters: 1500},
				{Center: model.GeoPoint{Lat: -25.2867, Lng: -57.6470}, RadiusMeters: 800},
			},
		},
		{
			ID:        "villa_morra",
			Name:      "Villa Morra",
			Semaphore: model.Green,
			Zones: []Zone{
				{Center: model.GeoPoint{Lat: -25.2925, Lng: -57.5800}, RadiusMeters: 1200},
			},
		},
		{
			ID:        "san_lorenzo",
			Name:      "San Lorenzo",
			Semaphore: model.Green,
			Zones: []Zone{
				{Center: model.GeoPoint{Lat: -25.3400, Lng: -57.5090}, RadiusMeters: 2500},
			},
		},
	}
}
