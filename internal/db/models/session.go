// Package models - session.go defines the Session model for browser logins.
// The row ID doubles as the bearer token, so it is generated from crypto/rand
// and only ever shown truncated outside of the login response cookie.
package models

import "time"

// Session represents a logged-in browser session
type Session struct {
	ID         string // Opaque bearer token (32 random bytes, base64url)
	AccountID  string
	IP         string
	CreatedAt  time.Time
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// DisplayID returns the truncated session identifier used in listings.
// Enough to address a row for revocation, useless as a credential.
func (s *Session) DisplayID() string {
	if len(s.ID) <= 8 {
		return s.ID
	}
	return s.ID[:8]
}
