package entity

import (
	"slices"
	"strings"
)

// Role represents an authority granted to a user.
type Role string

const (
	// RoleUser is the base role every account receives.
	RoleUser Role = "ROLE_USER"
	// RoleSeller can manage the seller area.
	RoleSeller Role = "ROLE_VENDEDOR"
	// RoleAdmin can manage every account.
	RoleAdmin Role = "ROLE_ADMIN"
)

const rolePrefix = "ROLE_"

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}

// Roles is a slice of Role for convenience.
type Roles []Role

// Contains checks if the roles slice contains a specific role.
func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// ContainsAny reports whether at least one of want is held.
func (rs Roles) ContainsAny(want ...Role) bool {
	return slices.ContainsFunc(want, rs.Contains)
}

// ToStrings converts Roles to []string for JWT compatibility.
func (rs Roles) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}

// RolesFromStrings converts []string to Roles. Names without the ROLE_ prefix
// ("ADMIN") are accepted; invalid names are dropped.
func RolesFromStrings(ss []string) Roles {
	result := make(Roles, 0, len(ss))
	for _, s := range ss {
		s = strings.ToUpper(strings.TrimSpace(s))
		if !strings.HasPrefix(s, rolePrefix) {
			s = rolePrefix + s
		}

		role := Role(s)
		if role.IsValid() && !result.Contains(role) {
			result = append(result, role)
		}
	}

	return result
}
