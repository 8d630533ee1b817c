package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/cerebro/internal/alert"
	"github.com/ppiankov/cerebro/internal/escalation"
	"github.com/ppiankov/cerebro/internal/escudo"
	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
	"github.com/ppiankov/cerebro/internal/role"
	"github.com/ppiankov/cerebro/internal/verification"
	"github.com/ppiankov/cerebro/internal/zone"
)

// EscalationConfig holds monetary thresholds (guaraníes) and sensitive roles.
type EscalationConfig struct {
	MediumThreshold int64    `yaml:"medium_threshold"`
	HighThreshold   int64    `yaml:"high_threshold"`
	SensitiveRoles  []string `yaml:"sensitive_roles"`
}

// ZonesConfig holds the territory catalog.
type ZonesConfig struct {
	// UncoveredDefault applies to valid points outside every zone.
	// Malformed points are always red regardless of this setting.
	UncoveredDefault model.Semaphore            `yaml:"uncovered_default"`
	Territories      []zone.Territory           `yaml:"territories"`
	Overrides        map[string]model.Semaphore `yaml:"overrides,omitempty"`
}

// EscudoSpec is the YAML form of an escudo catalog entry.
type EscudoSpec struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name,omitempty"`
	Layer      escudo.Layer      `yaml:"layer"`
	Roles      []string          `yaml:"roles"`
	ZoneStates []model.Semaphore `yaml:"zone_states,omitempty"`
	Modifier   escudo.Modifier   `yaml:"modifier"`
}

// PolicyConfig holds all configurable decision parameters. The role table is
// compiled in and not part of it.
type PolicyConfig struct {
	Escalation       EscalationConfig       `yaml:"escalation"`
	Freshness        verification.Freshness `yaml:"freshness"`
	Zones            ZonesConfig            `yaml:"zones"`
	SensitiveIntents []string               `yaml:"sensitive_intents"`
	Escudos          []EscudoSpec           `yaml:"escudos"`
	Alerts           []alert.Webhook        `yaml:"alerts,omitempty"`
}

// DefaultConfig returns the built-in policy.
func DefaultConfig() *PolicyConfig {
	sensitiveRoles := make([]string, 0, 2)
	for _, r := range escalation.DefaultSensitiveRoles() {
		sensitiveRoles = append(sensitiveRoles, r.String())
	}

	escudos := make([]EscudoSpec, 0, 4)
	for _, e := range escudo.DefaultConfigs() {
		escudos = append(escudos, specFromEscudo(e))
	}

	return &PolicyConfig{
		Escalation: EscalationConfig{
			MediumThreshold: escalation.DefaultMediumThreshold,
			HighThreshold:   escalation.DefaultHighThreshold,
			SensitiveRoles:  sensitiveRoles,
		},
		Freshness: verification.DefaultFreshness(),
		Zones: ZonesConfig{
			UncoveredDefault: model.Green,
			Territories:      zone.DefaultTerritories(),
		},
		SensitiveIntents: intent.DefaultSensitive(),
		Escudos:          escudos,
	}
}

func specFromEscudo(e escudo.Config) EscudoSpec {
	roles := make([]string, 0, len(e.AllowedRoles))
	for _, r := range e.AllowedRoles {
		roles = append(roles, r.String())
	}
	return EscudoSpec{
		ID:         e.ID,
		Name:       e.Name,
		Layer:      e.Layer,
		Roles:      roles,
		ZoneStates: e.AllowedZoneStates,
		Modifier:   e.Modifier,
	}
}

func (s EscudoSpec) toEscudo() (escudo.Config, error) {
	roles := make([]role.Role, 0, len(s.Roles))
	for _, name := range s.Roles {
		r, err := role.ParseRole(name)
		if err != nil {
			return escudo.Config{}, fmt.Errorf("%w: escudo %q: %v", model.ErrConfig, s.ID, err)
		}
		roles = append(roles, r)
	}
	return escudo.Config{
		ID:                s.ID,
		Name:              s.Name,
		AllowedRoles:      roles,
		AllowedZoneStates: s.ZoneStates,
		Layer:             s.Layer,
		Modifier:          s.Modifier,
	}, nil
}

// Validate builds every component from the config and reports the first error.
func (c *PolicyConfig) Validate() error {
	_, err := NewEngine(c)
	return err
}

// DefaultPath returns ~/.cerebro/policy.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cerebro", "policy.yaml")
}

// LoadConfig loads policy configuration from a YAML file.
// Empty path falls back to ~/.cerebro/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*PolicyConfig, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads policy configuration and returns the SHA-256 of the
// raw bytes on disk. Defaults hash as empty input.
func LoadConfigWithHash(path string) (*PolicyConfig, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("failed to read policy config: %w", err)
		}
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, "", err
	}
	return cfg, hash, nil
}

// ParseConfig overlays YAML onto the defaults. Lists in the YAML replace the
// default lists entirely.
func ParseConfig(data []byte) (*PolicyConfig, error) {
	cfg := DefaultConfig()
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy config: %w", err)
	}
	return cfg, nil
}

// DefaultConfigYAML returns a commented YAML string for init-policy.
func DefaultConfigYAML() string {
	return `# cerebro policy configuration
# Generated by: cerebro init-policy
#
# Evaluation order (cannot be changed):
#   1. Role permission     -> blocked
#   2. Zone                -> blocked for sensitive intents in red zones
#   3. Escalation          -> minimum verification level from amount / role / impact
#      Daily wallet limit  -> blocked
#   4. Required level      = max(role level, yellow ? 1 : 0, escalation level)
#   5. Freshness           -> requires_validation
#   6. Allowed
#   7. Escudos             -> cosmetic only, never change the decision kind
#
# Role permissions and daily limits are compiled in and cannot be set here.

# Monetary thresholds in guaraníes. Rules, first match wins:
#   impact high                               -> level 2
#   amount >= high_threshold                  -> level 2
#   amount >= medium_threshold, impact medium -> level 1
#   sensitive role, amount > 0, impact medium -> level 1
escalation:
  medium_threshold: 200000
  high_threshold: 1000000
  sensitive_roles: [capeto, mbarete]

# How long a verification stays valid, keyed by the level the action requires.
freshness:
  level_1: 10m
  level_2: 5m
  level_3: 60s

# Territories are matched in order; the first zone containing the point wins.
# A point exactly on the radius is inside.
zones:
  # State for valid points outside every zone. Malformed coordinates are
  # always treated as red.
  uncovered_default: green
  territories:
    - id: chacarita
      name: Chacarita
      semaphore: red
      zones:
        - {center: {lat: -25.2783, lng: -57.6425}, radius_meters: 700}
    - id: mercado4
      name: Mercado 4
      semaphore: yellow
      zones:
        - {center: {lat: -25.2958, lng: -57.6283}, radius_meters: 600}
    - id: terminal
      name: Terminal de Ómnibus
      semaphore: yellow
      zones:
        - {center: {lat: -25.3105, lng: -57.6060}, radius_meters: 450}
    - id: centro
      name: Asunción Centro
      semaphore: green
      zones:
        - {center: {lat: -25.2822, lng: -57.6351}, radius_meters: 1500}
        - {center: {lat: -25.2867, lng: -57.6470}, radius_meters: 800}
    - id: villa_morra
      name: Villa Morra
      semaphore: green
      zones:
        - {center: {lat: -25.2925, lng: -57.5800}, radius_meters: 1200}
    - id: san_lorenzo
      name: San Lorenzo
      semaphore: green
      zones:
        - {center: {lat: -25.3400, lng: -57.5090}, radius_meters: 2500}
  # Temporary state overrides by territory id, for drills and incidents.
  # overrides:
  #   centro: yellow

# Intents blocked in red zones. Everything else stays reachable there.
sensitive_intents:
  - wallet_transfer
  - video_call
  - offer_create
  - offer_apply
  - performance_upload
  - territory_admin
  - dashboard_admin

# Escudos are applied in this order, only to allowed decisions.
# layer: benefit | security. Only security escudos may raise severity.
escudos:
  - id: fintech
    name: Escudo Fintech
    layer: benefit
    roles: [vale, capeto, cliente, mbarete]
    modifier:
      message_suffix: " · Escudo Fintech activo: sin comisión en tus próximas transferencias."
      actions:
        - {type: navigate, payload: {route: /wallet}, label: Ver billetera}
  - id: salud
    name: Escudo Salud
    layer: benefit
    roles: [vale, capeto]
    modifier:
      message_suffix: " · Escudo Salud: tenés consulta médica de telemedicina incluida."
      actions:
        - {type: navigate, payload: {route: /escudos/salud}, label: Ver cobertura}
  - id: legal
    name: Escudo Legal
    layer: benefit
    roles: [vale, capeto, cliente]
    modifier:
      message_suffix: " · Escudo Legal: asesoría para contratos disponible."
  - id: guardian
    name: Escudo Guardián
    layer: security
    roles: [vale, capeto, cliente, mbarete]
    zone_states: [yellow, red]
    modifier:
      message_suffix: " · Guardián activo: compartí tu ubicación con un contacto de confianza."
      actions:
        - {type: share_location, payload: {contact: trusted}, label: Compartir ubicación}
      severity: yellow

# Webhooks for decision events: blocked | requires_validation | fault
# alerts:
#   - url: https://hooks.slack.com/services/...
#     format: slack
#     events: [blocked, fault]
`
}
