package role

import (
	"fmt"
	"strings"

	"github.com/ppiankov/cerebro/internal/intent"
	"github.com/ppiankov/cerebro/internal/model"
)

// Role is the closed set of marketplace roles.
type Role int

const (
	Vale    Role = iota // gig worker
	Capeto              // employer / crew lead
	Cliente             // customer hiring services
	Mbarete             // platform operator

	numRoles
)

var names = [numRoles]string{
	Vale:    "vale",
	Capeto:  "capeto",
	Cliente: "cliente",
	Mbarete: "mbarete",
}

// String returns the wire name of the role.
func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return names[r]
}

// Valid reports whether r is a member of the enumeration.
func (r Role) Valid() bool {
	return r >= 0 && r < numRoles
}

// ParseRole maps a wire name to a Role. Unknown names are never remapped to a
// default role; they return ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == name {
			return Role(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q", model.ErrUnknownRole, s)
}

// All returns every role in declaration order.
func All() []Role {
	out := make([]Role, 0, numRoles)
	for r := Role(0); r < numRoles; r++ {
		out = append(out, r)
	}
	return out
}

// Behavior is the static permission profile of a role.
type Behavior struct {
	PermittedIntents       map[string]bool
	BiometricLevelRequired model.Level
	// WalletDailyLimit in guaraníes. 0 means no explicit cap and is only
	// meaningful once the intent is already permitted.
	WalletDailyLimit int64
	CanHire          map[Role]bool
}

// restrictive is what an unknown role resolves to: nothing permitted,
// strongest verification, no hiring.
var restrictive = Behavior{
	PermittedIntents:       map[string]bool{},
	BiometricLevelRequired: model.MaxLevel,
	CanHire:                map[Role]bool{},
}

func set(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

var navigation = []string{
	intent.NavigateHome, intent.NavigateJobs, intent.NavigateWallet,
	intent.NavigateChat, intent.NavigateEscudos,
}

func with(base []string, ids ...string) []string {
	out := make([]string, 0, len(base)+len(ids))
	out = append(out, base...)
	return append(out, ids...)
}

// behaviors is indexed by Role; a role added to the enumeration without an
// entry here trips TestEveryRoleHasBehavior and Validate.
var behaviors = [numRoles]Behavior{
	Vale: {
		PermittedIntents: set(with(navigation,
			intent.WalletBalance,
			intent.OfferApply,
			intent.PerformanceUpload,
			intent.ChatOpen,
			intent.VideoCall,
			intent.EscudoActivate,
		)...),
		BiometricLevelRequired: model.LevelConfirm,
		WalletDailyLimit:       1_000_000,
		CanHire:                map[Role]bool{},
	},
	Capeto: {
		PermittedIntents: set(with(navigation,
			intent.WalletBalance,
			intent.WalletTransfer,
			intent.OfferCreate,
			intent.HireRequest,
			intent.ChatOpen,
			intent.VideoCall,
			intent.EscudoActivate,
		)...),
		BiometricLevelRequired: model.LevelConfirm,
		WalletDailyLimit:       10_000_000,
		CanHire:                map[Role]bool{Vale: true},
	},
	Cliente: {
		PermittedIntents: set(with(navigation,
			intent.WalletBalance,
			intent.WalletTransfer,
			intent.OfferCreate,
			intent.HireRequest,
			intent.ChatOpen,
			intent.VideoCall,
			intent.EscudoActivate,
		)...),
		BiometricLevelRequired: model.LevelNone,
		WalletDailyLimit:       2_000_000,
		CanHire:                map[Role]bool{Vale: true},
	},
	Mbarete: {
		PermittedIntents:       set(intent.IDs()...),
		BiometricLevelRequired: model.LevelFace,
		WalletDailyLimit:       0,
		CanHire:                map[Role]bool{Capeto: true, Vale: true},
	},
}

// Lookup returns the behavior for a role. Unknown roles fail closed: the most
// restrictive behavior is returned together with ErrUnknownRole.
func Lookup(r Role) (Behavior, error) {
	if !r.Valid() {
		return restrictive, fmt.Errorf("%w: %s", model.ErrUnknownRole, r)
	}
	return behaviors[r], nil
}

// IntentAllowed is plain set membership. Unknown (role, intent) pairs are false.
func IntentAllowed(r Role, intentID string) bool {
	b, err := Lookup(r)
	if err != nil {
		return false
	}
	return b.PermittedIntents[intentID]
}

// RequiredLevel returns the base verification level for a role.
func RequiredLevel(r Role) model.Level {
	b, _ := Lookup(r)
	return b.BiometricLevelRequired
}

// DailyLimit returns the wallet daily limit. 0 means no explicit cap.
func DailyLimit(r Role) int64 {
	b, _ := Lookup(r)
	return b.WalletDailyLimit
}

// CanHire checks explicit hiring rights. Not transitive: mbarete→capeto and
// capeto→vale do not imply anything beyond what each entry lists.
func CanHire(requester, target Role) bool {
	if !target.Valid() {
		return false
	}
	b, err := Lookup(requester)
	if err != nil {
		return false
	}
	return b.CanHire[target]
}

// Validate checks the static table once at startup.
func Validate() error {
	for _, r := range All() {
		b := behaviors[r]
		if len(b.PermittedIntents) == 0 {
			return fmt.Errorf("%w: role %s has no behavior entry", model.ErrConfig, r)
		}
		if !b.BiometricLevelRequired.Valid() {
			return fmt.Errorf("%w: role %s biometric level %d out of range", model.ErrConfig, r, b.BiometricLevelRequired)
		}
		if b.WalletDailyLimit < 0 {
			return fmt.Errorf("%w: role %s has negative wallet limit", model.ErrConfig, r)
		}
		for id := range b.PermittedIntents {
			if !intent.Known(id) {
				return fmt.Errorf("%w: role %s permits unknown intent %q", model.ErrConfig, r, id)
			}
		}
	}
	return nil
}
