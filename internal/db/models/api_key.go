// Package models - api_key.go defines the APIKey model. Only the bcrypt hash
// and a short display prefix of the key are stored; the full secret exists
// exactly once, in the creation response.
package models

import "time"

// APIKey represents an API key for programmatic access
type APIKey struct {
	ID          string
	AccountID   string
	Description *string    // Optional human-friendly description
	KeyHash     string     // Bcrypt hash of the full key
	KeyPrefix   string     // First 10 chars for display and candidate lookup (e.g., "ldev_abc12")
	Roles       []string   // JSONB array: ["default"], ["default", "cms"], ["*"]
	Uses        int64      // Lifetime authenticated request count
	CreatedAt   time.Time
	LastUsedAt  *time.Time // Track last usage
}
