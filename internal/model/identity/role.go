package identity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned when a role string is neither farmer nor vendor.
var ErrUnknownRole = errors.New("unknown role")

// Role is the canonical party type of a Kisan Dost user.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleVendor Role = "vendor"
)

// NormalizeRole maps the role spellings emitted by the different app versions
// ("farmer", "vendor", "vender", any case) onto the canonical Role.
func NormalizeRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "farmer":
		return RoleFarmer, nil
	case "vendor", "vender":
		return RoleVendor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, raw)
	}
}

// Counterpart returns the other side of a conversation.
func (r Role) Counterpart() Role {
	switch r {
	case RoleFarmer:
		return RoleVendor
	case RoleVendor:
		return RoleFarmer
	default:
		return ""
	}
}

func (r Role) String() string {
	return string(r)
}
