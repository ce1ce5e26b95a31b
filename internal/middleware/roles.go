// Package middleware (roles.go) implements role-based authorization middleware.
//
// Roles are checked at request time from the key's stored role set rather than
// being baked into the credential. Editing a key's roles takes effect on the
// next request without rotating the key itself.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/auth"
)

// RequireRole checks if the authenticated identity carries the required role
func RequireRole(role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Set by AuthMiddleware
		rolesVal, exists := c.Get(RolesKey)
		if !exists {
			respond.AbortError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}

		roles, ok := rolesVal.([]string)
		if !ok {
			respond.AbortError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}

		if !auth.HasRole(roles, role) {
			respond.AbortError(c, http.StatusForbidden, "This key does not have the '"+string(role)+"' role")
			return
		}

		c.Next()
	}
}

// RequireAnyRole checks if the identity carries at least one of the given roles
func RequireAnyRole(required ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rolesVal, exists := c.Get(RolesKey)
		if !exists {
			respond.AbortError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}

		roles, ok := rolesVal.([]string)
		if !ok {
			respond.AbortError(c, http.StatusForbidden, "Insufficient permissions")
			return
		}

		for _, r := range required {
			if auth.HasRole(roles, r) {
				c.Next()
				return
			}
		}

		respond.AbortError(c, http.StatusForbidden, "Insufficient permissions")
	}
}
