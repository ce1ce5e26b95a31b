// Package me implements the session-authenticated dashboard API: profile,
// detail updates, API key management, session management, and usage metrics.
package me

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/auth"
	"github.com/lagden-dev/ldev-api/internal/config"
	"github.com/lagden-dev/ldev-api/internal/db/models"
	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/middleware"
)

const (
	// RecentLogsLimit is the fixed page size of the recent-api-logs endpoint
	RecentLogsLimit = 5

	// MaxLogsLimit caps the page size of the paginated log endpoint
	MaxLogsLimit = 100
)

// Handlers handles the dashboard endpoints
type Handlers struct {
	cfg         *config.Config
	accountRepo *repositories.AccountRepository
	sessionRepo *repositories.SessionRepository
	apiKeyRepo  *repositories.APIKeyRepository
	usageRepo   *repositories.UsageLogRepository
}

// NewHandlers creates a new dashboard Handlers instance
func NewHandlers(cfg *config.Config, db *sql.DB, sqlxDB *sqlx.DB) *Handlers {
	return &Handlers{
		cfg:         cfg,
		accountRepo: repositories.NewAccountRepository(db),
		sessionRepo: repositories.NewSessionRepository(db),
		apiKeyRepo:  repositories.NewAPIKeyRepository(db),
		usageRepo:   repositories.NewUsageLogRepository(sqlxDB),
	}
}

// @Summary      Dashboard profile
// @Description  Return the authenticated account's profile.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /api/me [get]
// ProfileHandler returns the authenticated account's profile
// GET /api/me
func (h *Handlers) ProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := c.MustGet(middleware.AccountKey).(*models.Account)

		respond.OK(c, http.StatusOK, "Account retrieved", gin.H{
			"id":             account.ID,
			"email":          account.Email,
			"email_verified": account.EmailVerified,
			"name":           account.Name,
			"org":            account.Org,
			"created_at":     account.CreatedAt,
		})
	}
}

// @Summary      Update account detail
// @Description  Update a single profile field. Supported details: name, org.
// @Tags         Dashboard
// @Produce      json
// @Param        detail  path  string  true  "Field to update (name or org)"
// @Param        value   path  string  true  "New value"
// @Success      200  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Unknown detail or invalid value"
// @Router       /api/me/details/{detail}/{value} [patch]
// UpdateDetailHandler updates one profile field
// PATCH /api/me/details/:detail/:value
func (h *Handlers) UpdateDetailHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)
		detail := c.Param("detail")
		value := strings.TrimSpace(c.Param("value"))

		var err error
		switch detail {
		case "name":
			if len(value) < 2 {
				respond.Error(c, http.StatusBadRequest, "Name must be at least 2 characters")
				return
			}
			err = h.accountRepo.UpdateName(c.Request.Context(), accountID, value)
		case "org":
			err = h.accountRepo.UpdateOrg(c.Request.Context(), accountID, value)
		default:
			respond.Error(c, http.StatusBadRequest, "Unknown detail: "+detail)
			return
		}

		if err == sql.ErrNoRows {
			respond.Error(c, http.StatusNotFound, "Account not found")
			return
		}
		if err != nil {
			slog.Error("failed to update account detail", "error", err, "detail", detail, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to update account")
			return
		}

		respond.OK(c, http.StatusOK, "Account updated", gin.H{
			"detail": detail,
			"value":  value,
		})
	}
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

// keyView serializes an API key for listings. The hash never leaves the
// database; the prefix is all a client gets back after creation.
func keyView(k *models.APIKey) gin.H {
	return gin.H{
		"id":           k.ID,
		"description":  k.Description,
		"key_prefix":   k.KeyPrefix,
		"roles":        k.Roles,
		"uses":         k.Uses,
		"created_at":   k.CreatedAt,
		"last_used_at": k.LastUsedAt,
	}
}

// @Summary      List API keys
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /api/me/api-keys [get]
// ListAPIKeysHandler lists the account's API keys
// GET /api/me/api-keys
func (h *Handlers) ListAPIKeysHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)

		keys, err := h.apiKeyRepo.ListAPIKeysByAccount(c.Request.Context(), accountID)
		if err != nil {
			slog.Error("failed to list api keys", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to list API keys")
			return
		}

		views := make([]gin.H, 0, len(keys))
		for _, k := range keys {
			views = append(views, keyView(k))
		}

		respond.OK(c, http.StatusOK, "API keys retrieved", gin.H{"api_keys": views})
	}
}

// CreateAPIKeyRequest represents the request to create an API key
type CreateAPIKeyRequest struct {
	Description *string  `json:"description"`
	Roles       []string `json:"roles"`
}

// @Summary      Create API key
// @Description  Create a new API key. The full secret appears in this response and nowhere else.
// @Tags         Dashboard
// @Accept       json
// @Produce      json
// @Param        body  body  CreateAPIKeyRequest  true  "Key creation request"
// @Success      201  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Invalid role"
// @Router       /api/me/api-keys [post]
// CreateAPIKeyHandler creates a new API key
// POST /api/me/api-keys
func (h *Handlers) CreateAPIKeyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)

		var req CreateAPIKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		roles := req.Roles
		if len(roles) == 0 {
			roles = auth.DefaultRoles()
		}
		if err := auth.ValidateRoles(roles); err != nil {
			respond.Error(c, http.StatusBadRequest, err.Error())
			return
		}
		roles = auth.NormalizeRoles(roles)

		fullKey, hash, displayPrefix, err := auth.GenerateAPIKey(h.cfg.Auth.APIKeys.Prefix)
		if err != nil {
			slog.Error("failed to generate api key", "error", err)
			respond.Error(c, http.StatusInternalServerError, "Failed to create API key")
			return
		}

		apiKey := &models.APIKey{
			AccountID:   accountID,
			Description: req.Description,
			KeyHash:     hash,
			KeyPrefix:   displayPrefix,
			Roles:       roles,
		}

		if err := h.apiKeyRepo.CreateAPIKey(c.Request.Context(), apiKey); err != nil {
			slog.Error("failed to create api key", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to create API key")
			return
		}

		// The full secret is shown exactly once. Only its bcrypt hash is
		// retained, so losing this response means generating a new key.
		respond.OK(c, http.StatusCreated, "API key created", gin.H{
			"api_key": keyView(apiKey),
			"key":     fullKey,
		})
	}
}

// @Summary      Get API key
// @Tags         Dashboard
// @Produce      json
// @Param        id  path  string  true  "API key ID"
// @Success      200  {object}  respond.Envelope
// @Failure      404  {object}  respond.Envelope  "API key not found"
// @Router       /api/me/api-keys/{id} [get]
// GetAPIKeyHandler retrieves one of the account's API keys
// GET /api/me/api-keys/:id
func (h *Handlers) GetAPIKeyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)
		keyID := c.Param("id")

		key, err := h.apiKeyRepo.GetAPIKeyByID(c.Request.Context(), keyID)
		if err != nil {
			slog.Error("failed to get api key", "error", err, "key_id", keyID)
			respond.Error(c, http.StatusInternalServerError, "Failed to retrieve API key")
			return
		}

		// A key owned by another account gets the same response as a missing
		// one, so key IDs cannot be probed across accounts.
		if key == nil || key.AccountID != accountID {
			respond.Error(c, http.StatusNotFound, "API key not found")
			return
		}

		respond.OK(c, http.StatusOK, "API key retrieved", gin.H{"api_key": keyView(key)})
	}
}

// @Summary      Revoke API key
// @Tags         Dashboard
// @Produce      json
// @Param        id  path  string  true  "API key ID"
// @Success      200  {object}  respond.Envelope
// @Failure      404  {object}  respond.Envelope  "API key not found"
// @Router       /api/me/api-keys/{id} [delete]
// RevokeAPIKeyHandler deletes one of the account's API keys
// DELETE /api/me/api-keys/:id
func (h *Handlers) RevokeAPIKeyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)
		keyID := c.Param("id")

		deleted, err := h.apiKeyRepo.RevokeAPIKey(c.Request.Context(), keyID, accountID)
		if err != nil {
			slog.Error("failed to revoke api key", "error", err, "key_id", keyID)
			respond.Error(c, http.StatusInternalServerError, "Failed to revoke API key")
			return
		}
		if deleted == 0 {
			respond.Error(c, http.StatusNotFound, "API key not found")
			return
		}

		respond.OK(c, http.StatusOK, "API key revoked", nil)
	}
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// @Summary      List sessions
// @Description  List the account's sessions, most recently used first. The current session is flagged.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /api/me/sessions [get]
// ListSessionsHandler lists the account's sessions
// GET /api/me/sessions
func (h *Handlers) ListSessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)
		current := c.MustGet(middleware.SessionKey).(*models.Session)

		sessions, err := h.sessionRepo.ListSessionsByAccount(c.Request.Context(), accountID)
		if err != nil {
			slog.Error("failed to list sessions", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to list sessions")
			return
		}

		views := make([]gin.H, 0, len(sessions))
		for _, s := range sessions {
			views = append(views, gin.H{
				"id":           s.DisplayID(),
				"ip":           s.IP,
				"created_at":   s.CreatedAt,
				"last_used_at": s.LastUsedAt,
				"expires_at":   s.ExpiresAt,
				"current":      s.ID == current.ID,
			})
		}

		respond.OK(c, http.StatusOK, "Sessions retrieved", gin.H{"sessions": views})
	}
}

// @Summary      Revoke session
// @Description  Delete a session by its display ID. The current session cannot be revoked here; use logout.
// @Tags         Dashboard
// @Produce      json
// @Param        id  path  string  true  "Session display ID"
// @Success      200  {object}  respond.Envelope
// @Failure      403  {object}  respond.Envelope  "Cannot revoke the current session"
// @Failure      404  {object}  respond.Envelope  "Session not found"
// @Router       /api/me/sessions/{id} [delete]
// RevokeSessionHandler deletes one of the account's sessions
// DELETE /api/me/sessions/:id
func (h *Handlers) RevokeSessionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)
		current := c.MustGet(middleware.SessionKey).(*models.Session)
		displayID := c.Param("id")

		if displayID == current.DisplayID() {
			respond.Error(c, http.StatusForbidden, "Cannot revoke the current session; use logout")
			return
		}

		deleted, err := h.sessionRepo.DeleteSessionByDisplayID(c.Request.Context(), displayID, accountID)
		if err != nil {
			slog.Error("failed to revoke session", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to revoke session")
			return
		}
		if deleted == 0 {
			respond.Error(c, http.StatusNotFound, "Session not found")
			return
		}

		respond.OK(c, http.StatusOK, "Session revoked", nil)
	}
}

// ---------------------------------------------------------------------------
// Usage logs
// ---------------------------------------------------------------------------

func logView(e *models.UsageLogEntry) gin.H {
	return gin.H{
		"id":          e.ID,
		"api_key_id":  e.APIKeyID,
		"route":       e.Route,
		"method":      e.Method,
		"status_code": e.StatusCode,
		"error":       e.Error,
		"created_at":  e.CreatedAt,
	}
}

// @Summary      Recent usage logs
// @Description  Return the five most recent usage log entries.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /api/me/recent-api-logs [get]
// RecentLogsHandler returns the most recent usage log entries
// GET /api/me/recent-api-logs
func (h *Handlers) RecentLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)

		entries, err := h.usageRepo.Recent(c.Request.Context(), accountID, RecentLogsLimit, 0)
		if err != nil {
			slog.Error("failed to list usage logs", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to retrieve usage logs")
			return
		}

		views := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			views = append(views, logView(e))
		}

		respond.OK(c, http.StatusOK, "Usage logs retrieved", gin.H{"logs": views})
	}
}

// @Summary      Paginated usage logs
// @Tags         Dashboard
// @Produce      json
// @Param        limit  path  int  true  "Page size (1-100)"
// @Param        skip   path  int  true  "Rows to skip"
// @Success      200  {object}  respond.Envelope
// @Failure      400  {object}  respond.Envelope  "Invalid pagination parameters"
// @Router       /api/me/all-api-logs/{limit}/{skip} [get]
// AllLogsHandler returns a page of usage log entries
// GET /api/me/all-api-logs/:limit/:skip
func (h *Handlers) AllLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)

		limit, err := strconv.Atoi(c.Param("limit"))
		if err != nil || limit < 1 || limit > MaxLogsLimit {
			respond.Error(c, http.StatusBadRequest, "Limit must be between 1 and 100")
			return
		}
		skip, err := strconv.Atoi(c.Param("skip"))
		if err != nil || skip < 0 {
			respond.Error(c, http.StatusBadRequest, "Skip must be zero or positive")
			return
		}

		entries, err := h.usageRepo.Recent(c.Request.Context(), accountID, limit, skip)
		if err != nil {
			slog.Error("failed to list usage logs", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to retrieve usage logs")
			return
		}

		views := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			views = append(views, logView(e))
		}

		respond.OK(c, http.StatusOK, "Usage logs retrieved", gin.H{
			"logs":  views,
			"limit": limit,
			"skip":  skip,
		})
	}
}

// @Summary      Usage totals
// @Description  Return lifetime and month-over-month request counts.
// @Tags         Dashboard
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       /api/me/total-api-logs [get]
// TotalLogsHandler returns usage totals with month-over-month growth
// GET /api/me/total-api-logs
func (h *Handlers) TotalLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.GetString(middleware.AccountIDKey)

		totals, err := h.usageRepo.Totals(c.Request.Context(), accountID)
		if err != nil {
			slog.Error("failed to compute usage totals", "error", err, "account_id", accountID)
			respond.Error(c, http.StatusInternalServerError, "Failed to retrieve usage totals")
			return
		}

		respond.OK(c, http.StatusOK, "Usage totals retrieved", gin.H{
			"total":      totals.Total,
			"this_month": totals.ThisMonth,
			"last_month": totals.LastMonth,
			"growth_pct": totals.GrowthPercent(),
		})
	}
}
