// Package watcher implements the Discord presence proxy. Profiles are written
// to Postgres by the external bot; this service serves read-only lookups.
package watcher

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/telemetry"
)

// Handlers handles watcher lookup endpoints
type Handlers struct {
	watcherRepo *repositories.WatcherRepository
}

// NewHandlers creates a new watcher Handlers instance
func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{watcherRepo: repositories.NewWatcherRepository(db)}
}

// @Summary      Look up a watched user
// @Description  Return the cached Discord profile and presence for a tracked user.
// @Tags         Watcher
// @Produce      json
// @Param        discord_id  path  string  true  "Discord user ID (numeric)"
// @Success      200  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Non-numeric ID"
// @Failure      403  {object}  respond.Envelope  "User banned or opted out"
// @Failure      404  {object}  respond.Envelope  "User not tracked"
// @Router       /v1/watcher/{discord_id} [get]
// LookupHandler returns a tracked user's profile and presence
// GET /v1/watcher/:discord_id
func (h *Handlers) LookupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param("discord_id")

		discordID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			telemetry.WatcherLookupsTotal.WithLabelValues("invalid_id").Inc()
			respond.Error(c, http.StatusBadRequest, "Invalid Discord ID")
			return
		}

		profile, err := h.watcherRepo.GetProfile(c.Request.Context(), discordID)
		if err != nil {
			slog.Error("watcher profile lookup failed", "error", err, "discord_id", discordID)
			telemetry.WatcherLookupsTotal.WithLabelValues("error").Inc()
			respond.Error(c, http.StatusInternalServerError, "Lookup failed")
			return
		}

		if profile == nil {
			telemetry.WatcherLookupsTotal.WithLabelValues("not_found").Inc()
			respond.Error(c, http.StatusNotFound, "User Not Found")
			return
		}
		if profile.Banned {
			telemetry.WatcherLookupsTotal.WithLabelValues("banned").Inc()
			respond.Error(c, http.StatusForbidden, "User Banned")
			return
		}
		if !profile.WatcherEnabled {
			telemetry.WatcherLookupsTotal.WithLabelValues("opted_out").Inc()
			respond.Error(c, http.StatusForbidden, "User opted out of watcher")
			return
		}

		telemetry.WatcherLookupsTotal.WithLabelValues("found").Inc()
		respond.OK(c, http.StatusOK, "User retrieved", mergeProfile(profile.UserData, profile.PresenceData))
	}
}

// MissingIDHandler rejects lookups with no ID segment
// GET /v1/watcher/
func (h *Handlers) MissingIDHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		respond.Error(c, http.StatusBadRequest, "No user specified")
	}
}

// mergeProfile flattens the bot's user and presence snapshots into one
// object. Presence keys win on collision; the bot never produces
// overlapping keys in practice.
func mergeProfile(userData, presenceData json.RawMessage) map[string]interface{} {
	merged := make(map[string]interface{})

	var user map[string]interface{}
	if err := json.Unmarshal(userData, &user); err == nil {
		for k, v := range user {
			merged[k] = v
		}
	}

	var presence map[string]interface{}
	if err := json.Unmarshal(presenceData, &presence); err == nil {
		for k, v := range presence {
			merged[k] = v
		}
	}

	return merged
}
