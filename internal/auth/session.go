// Package auth - session.go generates opaque session tokens. Sessions are
// stored server-side so they can be listed and revoked individually; a
// stateless signed token cannot do either.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// SessionTokenLength is the length of the session token in bytes
const SessionTokenLength = 32

// GenerateSessionToken creates a new random session token.
// The token doubles as the session row's primary key.
func GenerateSessionToken() (string, error) {
	randomBytes := make([]byte, SessionTokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes), nil
}
