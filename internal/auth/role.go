package auth

import (
	"fmt"
	"strings"
)

// Role is the coarse-grained position of an identity inside its tenant.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleManager   Role = "manager"
	RoleDeveloper Role = "developer"
	RoleQA        Role = "qa"
	RoleViewer    Role = "viewer"
)

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleDeveloper, RoleQA, RoleViewer}
}

// ParseRole normalizes and validates a role string.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	switch role {
	case RoleAdmin, RoleManager, RoleDeveloper, RoleQA, RoleViewer:
		return role, nil
	}
	return "", fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, raw)
}

// IsAdmin reports whether the role carries the unconditional bypass.
func (r Role) IsAdmin() bool { return r == RoleAdmin }
