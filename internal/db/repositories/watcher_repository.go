// watcher_repository.go implements WatcherRepository, a read-only view over
// the watcher_profiles table maintained by the external Discord bot.
package repositories

import (
	"context"
	"database/sql"

	"github.com/lagden-dev/ldev-api/internal/db/models"
)

// WatcherRepository handles watcher profile database operations
type WatcherRepository struct {
	db *sql.DB
}

// NewWatcherRepository creates a new WatcherRepository
func NewWatcherRepository(db *sql.DB) *WatcherRepository {
	return &WatcherRepository{db: db}
}

// GetProfile retrieves a watcher profile by Discord ID
func (r *WatcherRepository) GetProfile(ctx context.Context, discordID int64) (*models.WatcherProfile, error) {
	query := `
		SELECT discord_id, banned, watcher_enabled, user_data, presence_data, updated_at
		FROM watcher_profiles
		WHERE discord_id = $1
	`

	profile := &models.WatcherProfile{}
	err := r.db.QueryRowContext(ctx, query, discordID).Scan(
		&profile.DiscordID,
		&profile.Banned,
		&profile.WatcherEnabled,
		&profile.UserData,
		&profile.PresenceData,
		&profile.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return profile, nil
}
