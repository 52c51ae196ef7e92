package enums

import "fmt"

// SystemRole represents the forum-wide privilege level carried in access tokens.
type SystemRole string

const (
	SystemRoleMember SystemRole = "member"
	SystemRoleStaff  SystemRole = "staff"
	SystemRoleAdmin  SystemRole = "admin"
)

var validSystemRoles = []SystemRole{
	SystemRoleMember,
	SystemRoleStaff,
	SystemRoleAdmin,
}

// String implements fmt.Stringer.
func (r SystemRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known SystemRole.
func (r SystemRole) IsValid() bool {
	for _, candidate := range validSystemRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseSystemRole converts raw input into a SystemRole.
func ParseSystemRole(value string) (SystemRole, error) {
	for _, candidate := range validSystemRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid system role %q", value)
}

// RoleForFlags derives the role from the identity privilege flags.
func RoleForFlags(isAdmin, isStaff bool) SystemRole {
	switch {
	case isAdmin:
		return SystemRoleAdmin
	case isStaff:
		return SystemRoleStaff
	default:
		return SystemRoleMember
	}
}
