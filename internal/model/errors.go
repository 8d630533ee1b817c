package model

import "errors"

// Error taxonomy. All of these fail closed to Blocked when they reach the engine.
var (
	// ErrConfig covers unknown roles, intents without catalog entries and
	// missing configuration.
	ErrConfig = errors.New("configuration error")

	// ErrUnknownRole is a ConfigError for a role outside the closed enumeration.
	ErrUnknownRole = errors.New("unknown role")

	// ErrUnknownIntent is a ConfigError for an intent with no catalog entry.
	ErrUnknownIntent = errors.New("unknown intent")

	// ErrZoneUnresolvable marks malformed coordinates. Distinct from the
	// legitimate "no zone contains this point" case.
	ErrZoneUnresolvable = errors.New("zone unresolvable")

	// ErrEscalationMisconfigured marks invalid thresholds. Fatal at startup.
	ErrEscalationMisconfigured = errors.New("escalation misconfigured")
)
