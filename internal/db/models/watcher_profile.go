// Package models - watcher_profile.go defines the WatcherProfile model.
// Rows are written by the external Discord bot; this service only reads them.
package models

import (
	"encoding/json"
	"time"
)

// WatcherProfile represents a tracked Discord user's cached profile and presence
type WatcherProfile struct {
	DiscordID      int64
	Banned         bool
	WatcherEnabled bool
	UserData       json.RawMessage // Discord user object as captured by the bot
	PresenceData   json.RawMessage // Presence/activity snapshot
	UpdatedAt      time.Time
}
