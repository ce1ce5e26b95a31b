// Package auth - roles.go defines the closed set of roles an API key can
// carry and provides HasRole and validation helpers. Roles are an enumeration,
// not free strings: an unknown role is rejected at key creation rather than
// silently never matching.
package auth

import (
	"fmt"
)

// Role represents a permission role attached to an API key
type Role string

const (
	// RoleDefault grants access to the general proxy endpoints
	// (watcher, color tools, image tools). Every key carries it.
	RoleDefault Role = "default"

	// RoleCMS grants access to the CMS proxy endpoints
	RoleCMS Role = "cms"

	// RoleWildcard grants every permission. Session-authenticated dashboard
	// requests act with this role.
	RoleWildcard Role = "*"
)

// AllRoles returns all valid roles
func AllRoles() []Role {
	return []Role{RoleDefault, RoleCMS, RoleWildcard}
}

// ValidRoles returns a map of valid role strings
func ValidRoles() map[string]bool {
	validRoles := make(map[string]bool)
	for _, role := range AllRoles() {
		validRoles[string(role)] = true
	}
	return validRoles
}

// ValidateRoles checks if all provided roles are valid
func ValidateRoles(roles []string) error {
	validRoles := ValidRoles()

	for _, role := range roles {
		if !validRoles[role] {
			return fmt.Errorf("invalid role: %s", role)
		}
	}

	return nil
}

// NormalizeRoles deduplicates the role set and guarantees the default role is
// present. Keys without any usable role would be dead weight.
func NormalizeRoles(roles []string) []string {
	seen := map[string]bool{string(RoleDefault): true}
	out := []string{string(RoleDefault)}
	for _, role := range roles {
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, role)
	}
	return out
}

// HasRole checks if a role set satisfies a required role.
// The wildcard role passes every check.
func HasRole(keyRoles []string, required Role) bool {
	requiredStr := string(required)

	for _, role := range keyRoles {
		if role == requiredStr {
			return true
		}
		if role == string(RoleWildcard) {
			return true
		}
	}

	return false
}

// DefaultRoles returns the role set for a newly created API key
func DefaultRoles() []string {
	return []string{string(RoleDefault)}
}
