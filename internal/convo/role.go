package convo

import "strings"

// Role is a marketplace actor type. Message senders use the same closed set,
// plus the generic Client and Carrier fallbacks.
type Role string

const (
	RoleIndividual Role = "individual"
	RoleCorporate  Role = "corporate"
	RoleNakliyeci  Role = "nakliyeci"
	RoleTasiyici   Role = "tasiyici"
	RoleClient     Role = "client"
	RoleCarrier    Role = "carrier"
)

// ParseRole maps a wire role through the fixed lookup. ok is false when s is
// empty or unknown.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "individual":
		return RoleIndividual, true
	case "corporate":
		return RoleCorporate, true
	case "nakliyeci", "carrier":
		return RoleNakliyeci, true
	case "tasiyici", "taşıyıcı", "driver":
		return RoleTasiyici, true
	}
	return "", false
}

// CarrierSide reports whether r views the marketplace from the carrier side.
func (r Role) CarrierSide() bool {
	return r == RoleNakliyeci || r == RoleTasiyici || r == RoleCarrier
}

// DefaultCounterpart is the sender type assumed for an incoming message whose
// role is missing or unknown.
func (r Role) DefaultCounterpart() Role {
	if r.CarrierSide() {
		return RoleClient
	}
	return RoleCarrier
}

// Label is the Turkish display label for r.
func (r Role) Label() string {
	switch r {
	case RoleIndividual:
		return "Bireysel Gönderici"
	case RoleCorporate:
		return "Kurumsal Gönderici"
	case RoleNakliyeci:
		return "Nakliyeci"
	case RoleTasiyici:
		return "Taşıyıcı"
	case RoleClient:
		return "Müşteri"
	case RoleCarrier:
		return "Nakliyeci"
	}
	return "Kullanıcı"
}

func (r Role) String() string { return string(r) }
