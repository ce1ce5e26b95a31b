// Package models defines the database model types for the API.
// Each type corresponds to a database table and uses struct tags for both JSON serialization and sqlx row scanning.
// Models are pure data types — business logic belongs in the handlers, query logic belongs in the repositories layer.
package models

import "time"

// Account represents a registered account
type Account struct {
	ID            string
	Email         string // Stored lowercased
	EmailVerified bool
	PasswordHash  string  // Bcrypt hash; never serialized
	Name          string
	Org           *string // Optional organization name
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
