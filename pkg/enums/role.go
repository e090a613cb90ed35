package enums

import (
	"fmt"
	"strings"
)

// Role is the single account-level role resolved for every request.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleArtist Role = "ARTIST"
)

var validRoles = []Role{RoleAdmin, RoleArtist}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known Role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Matching is case-insensitive.
func ParseRole(value string) (Role, error) {
	for _, candidate := range validRoles {
		if strings.EqualFold(string(candidate), strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
