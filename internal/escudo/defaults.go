package escudo

import (
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
)

// DefaultConfigs returns the built-in catalog entries in application order.
func DefaultConfigs() []Config {
	return []Config{
		{
			ID:           "fintech",
			Name:         "Escudo Fintech",
			AllowedRoles: role.All(),
			Layer:        LayerBenefit,
			Modifier: Modifier{
				MessageSuffix: " · Escudo Fintech activo: sin comisión en tus próximas transferencias.",
				Actions: []model.SuggestedAction{
					{Type: "navigate", Payload: map[string]string{"route": "/wallet"}, Label: "Ver billetera"},
				},
			},
		},
		{
			ID:           "salud",
			Name:         "Escudo Salud",
			AllowedRoles: []role.Role{role.Vale, role.Capeto},
			Layer:        LayerBenefit,
			Modifier: Modifier{
				MessageSuffix: " · Escudo Salud: tenés consulta médica de telemedicina incluida.",
				Actions: []model.SuggestedAction{
					{Type: "navigate", Payload: map[string]string{"route": "/escudos/salud"}, Label: "Ver cobertura"},
				},
			},
		},
		{
			ID:           "legal",
			Name:         "Escudo Legal",
			AllowedRoles: []role.Role{role.Vale, role.Capeto, role.Cliente},
			Layer:        LayerBenefit,
			Modifier: Modifier{
				MessageSuffix: " · Escudo Legal: asesoría para contratos disponible.",
			},
		},
		{
			ID:                "guardian",
			Name:              "Escudo Guardián",
			AllowedRoles:      role.All(),
			AllowedZoneStates: []model.Semaphore{model.Yellow, model.Red},
			Layer:             LayerSecurity,
			Modifier: Modifier{
				MessageSuffix: " · Guardián activo: compartí tu ubicación con un contacto de confianza.",
				Actions: []model.SuggestedAction{
					{Type: "share_location", Payload: map[string]string{"contact": "trusted"}, Label: "Compartir ubicación"},
				},
				Severity: model.Yellow,
			},
		},
	}
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := New(DefaultConfigs())
	if err != nil {
		panic(err) // built-in entries are valid
	}
	return c
}
