// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and usage logging.
//
// Middleware ordering matters and is enforced in router.go: the global chain is
// Recovery → RequestID → Metrics → Logger → CORS → SecurityHeaders; protected
// groups then run Auth → RateLimit → UsageLog, with role checks per route.
// Auth runs before rate limiting so authenticated clients are limited by
// account rather than by shared IP; the unauthenticated signup/login endpoints
// get their own stricter IP-keyed limiter instead.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/auth"
	"github.com/lagden-dev/ldev-api/internal/config"
	"github.com/lagden-dev/ldev-api/internal/db/models"
	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/safego"
)

// Context keys set by the auth middleware
const (
	AccountKey    = "account"
	AccountIDKey  = "account_id"
	AuthMethodKey = "auth_method"
	SessionKey    = "session"
	APIKeyKey     = "api_key"
	APIKeyIDKey   = "api_key_id"
	RolesKey      = "roles"
)

// APIKeyHeader is the header carrying an API key. The api_key query
// parameter is accepted as a fallback for clients that cannot set headers.
const APIKeyHeader = "X-API-Key"

// AuthMiddleware resolves the request identity: session cookie first, API key
// second. Requests with neither are rejected before any handler runs.
//
// Session-authenticated requests act with the wildcard role since the browser
// dashboard needs access to everything the account owns. API keys carry their
// stored role set.
func AuthMiddleware(cfg *config.Config, accountRepo *repositories.AccountRepository, sessionRepo *repositories.SessionRepository, apiKeyRepo *repositories.APIKeyRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := c.Cookie(cfg.Auth.Sessions.CookieName); err == nil && token != "" {
			session, err := sessionRepo.GetSession(c.Request.Context(), token)
			if err != nil {
				respond.AbortError(c, http.StatusInternalServerError, "Authentication failed")
				return
			}

			if session != nil && !session.Expired(time.Now()) {
				account, err := accountRepo.GetAccountByID(c.Request.Context(), session.AccountID)
				if err != nil {
					respond.AbortError(c, http.StatusInternalServerError, "Authentication failed")
					return
				}
				if account == nil {
					// Account deleted out from under a live session
					respond.AbortError(c, http.StatusUnauthorized, "Invalid credentials")
					return
				}

				// Bump last-used asynchronously. Best-effort: a missed update
				// only skews the sessions listing, never correctness.
				safego.Go(func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = sessionRepo.UpdateLastUsed(ctx, session.ID)
				})

				c.Set(AccountKey, account)
				c.Set(AccountIDKey, account.ID)
				c.Set(SessionKey, session)
				c.Set(AuthMethodKey, "session")
				c.Set(RolesKey, []string{string(auth.RoleWildcard)})

				c.Next()
				return
			}
			// Expired or unknown cookie falls through to the API key path so a
			// stale browser cookie does not lock out a valid key.
		}

		providedKey := c.GetHeader(APIKeyHeader)
		if providedKey == "" {
			providedKey = c.Query("api_key")
		}

		if providedKey == "" {
			respond.AbortError(c, http.StatusUnauthorized, "No authentication provided")
			return
		}

		// Only the bcrypt hash is stored. The plaintext 10-char prefix narrows
		// the candidate rows so bcrypt runs against a handful, not the table.
		apiKey, err := authenticateAPIKey(c.Request.Context(), providedKey, apiKeyRepo)
		if err != nil {
			respond.AbortError(c, http.StatusInternalServerError, "Authentication failed")
			return
		}

		if apiKey == nil {
			respond.AbortError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		// A key that authenticates but fails a later role check still spends
		// a use, so the counter bumps here. Single atomic UPDATE.
		if err := apiKeyRepo.RecordUse(c.Request.Context(), apiKey.ID); err != nil {
			slog.Warn("failed to record api key use", "api_key_id", apiKey.ID, "error", err)
		}

		account, err := accountRepo.GetAccountByID(c.Request.Context(), apiKey.AccountID)
		if err != nil {
			respond.AbortError(c, http.StatusInternalServerError, "Authentication failed")
			return
		}
		if account == nil {
			respond.AbortError(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		c.Set(AccountKey, account)
		c.Set(AccountIDKey, account.ID)
		c.Set(APIKeyKey, apiKey)
		c.Set(APIKeyIDKey, apiKey.ID)
		c.Set(AuthMethodKey, "api_key")
		c.Set(RolesKey, apiKey.Roles)

		c.Next()
	}
}

// RequireSession restricts a route to session-authenticated requests.
// Account management (key creation, session revocation) is a browser concern;
// letting API keys mint other keys would turn any leaked key into a root key.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if method, _ := c.Get(AuthMethodKey); method != "session" {
			respond.AbortError(c, http.StatusForbidden, "This endpoint requires a browser session")
			return
		}
		c.Next()
	}
}

// authenticateAPIKey attempts to authenticate an API key by prefix lookup and bcrypt validation
func authenticateAPIKey(ctx context.Context, providedKey string, apiKeyRepo *repositories.APIKeyRepository) (*models.APIKey, error) {
	keys, err := apiKeyRepo.GetAPIKeysByPrefix(ctx, auth.DisplayPrefix(providedKey))
	if err != nil {
		return nil, err
	}

	// Try to validate the provided key against each candidate
	for _, key := range keys {
		if auth.ValidateAPIKey(providedKey, key.KeyHash) {
			return key, nil
		}
	}

	return nil, nil
}
