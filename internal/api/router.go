// Package api wires together all HTTP routes for the Lagden Development API.
//
// Route grouping philosophy:
//   - /api/accounts/ is the public account surface. Signup and login are
//     unauthenticated but sit behind a stricter IP-keyed rate limit bucket;
//     logout and /api/accounts/me require an authenticated session.
//   - /api/me/ is the dashboard surface. It accepts browser sessions only —
//     an API key cannot read profile data, mint new keys, or revoke sessions.
//   - /v1/ is the programmatic surface. Session or API key both work, each
//     route group checks its role, and every authenticated request is
//     recorded in the usage log after the response is written.
package api

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/lagden-dev/ldev-api/internal/api/accounts"
	"github.com/lagden-dev/ldev-api/internal/api/cmsproxy"
	"github.com/lagden-dev/ldev-api/internal/api/colortools"
	"github.com/lagden-dev/ldev-api/internal/api/imagetools"
	"github.com/lagden-dev/ldev-api/internal/api/me"
	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/api/watcher"
	"github.com/lagden-dev/ldev-api/internal/auth"
	"github.com/lagden-dev/ldev-api/internal/cache"
	"github.com/lagden-dev/ldev-api/internal/cms"
	"github.com/lagden-dev/ldev-api/internal/config"
	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/jobs"
	"github.com/lagden-dev/ldev-api/internal/middleware"
	"github.com/lagden-dev/ldev-api/internal/recaptcha"
)

// Version is the reported API version.
const Version = "2.0.0"

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	sessionReaper *jobs.SessionReaper
	rateLimiters  []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.sessionReaper != nil {
		bg.sessionReaper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize repositories. The usage log repository rides on sqlx for its
	// named-parameter insert and struct scanning.
	accountRepo := repositories.NewAccountRepository(db)
	sessionRepo := repositories.NewSessionRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)
	sqlxDB := sqlx.NewDb(db, "postgres")
	usageRepo := repositories.NewUsageLogRepository(sqlxDB)

	// Redis backs the CMS response cache and, optionally, the rate limiter.
	var redisCache *cache.RedisCache
	if cfg.Redis.Enabled {
		var err error
		redisCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			log.Fatalf("Failed to initialize redis cache: %v", err)
		}
	}

	cmsClient := cms.NewHTTPClient(
		cfg.Upstreams.Contentful.BaseURL,
		cfg.Upstreams.Contentful.SpaceID,
		cfg.Upstreams.Contentful.Environment,
		cfg.Upstreams.Contentful.AccessToken,
		cfg.Upstreams.Contentful.Timeout,
	)

	var verifier recaptcha.Verifier = recaptcha.Disabled{}
	if cfg.Upstreams.Recaptcha.Enabled {
		verifier = recaptcha.NewClient("", cfg.Upstreams.Recaptcha.Secret, cfg.Upstreams.Recaptcha.MinScore)
	}

	// Start the expired-session sweep.
	sessionReaper := jobs.NewSessionReaper(sessionRepo, cfg.Jobs.SessionReaperInterval)
	sessionReaper.Start(context.Background())

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Rate limiters. The accounts limiter is stricter and keyed by IP since
	// signup and login run before any identity exists.
	bg := &BackgroundServices{sessionReaper: sessionReaper}
	generalLimit := middleware.DefaultRateLimitConfig()
	if cfg.Security.RateLimiting.RequestsPerMinute > 0 {
		generalLimit.RequestsPerMinute = cfg.Security.RateLimiting.RequestsPerMinute
	}
	if cfg.Security.RateLimiting.Burst > 0 {
		generalLimit.BurstSize = cfg.Security.RateLimiting.Burst
	}
	accountsLimit := middleware.AccountsRateLimitConfig()
	if cfg.Security.RateLimiting.AccountsPerMinute > 0 {
		accountsLimit.RequestsPerMinute = cfg.Security.RateLimiting.AccountsPerMinute
	}

	rateLimit := func(limit middleware.RateLimitConfig) gin.HandlerFunc {
		if !cfg.Security.RateLimiting.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		if cfg.Security.RateLimiting.Backend == "redis" && redisCache != nil {
			return middleware.RedisRateLimitMiddleware(redisCache.Client(), limit)
		}
		limiter := middleware.NewRateLimiter(limit)
		bg.rateLimiters = append(bg.rateLimiters, limiter)
		return middleware.RateLimitMiddleware(limiter)
	}

	authRequired := middleware.AuthMiddleware(cfg, accountRepo, sessionRepo, apiKeyRepo)

	// System surface
	router.GET("/", welcomeHandler())
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, redisCache, cmsClient))
	router.GET("/version", versionHandler())

	// Handlers
	accountHandlers := accounts.NewHandlers(cfg, db, verifier)
	meHandlers := me.NewHandlers(cfg, db, sqlxDB)
	watcherHandlers := watcher.NewHandlers(db)
	var cmsCache cache.Cache
	if redisCache != nil {
		cmsCache = redisCache
	}
	cmsHandlers := cmsproxy.NewHandlers(cmsClient, cmsCache, cfg.Redis.TTL)
	colorHandlers := colortools.NewHandlers()
	imageHandlers := imagetools.NewHandlers()

	// Account lifecycle. Signup and login are public behind the strict
	// bucket; logout and the profile echo require authentication.
	accountsGroup := router.Group("/api/accounts")
	accountsGroup.Use(rateLimit(accountsLimit))
	{
		accountsGroup.POST("/signup", accountHandlers.SignupHandler())
		accountsGroup.POST("/login", accountHandlers.LoginHandler())
		accountsGroup.POST("/logout", authRequired, middleware.RequireSession(), accountHandlers.LogoutHandler())
		accountsGroup.GET("/me", authRequired, accountHandlers.MeHandler())
	}

	// Dashboard. Sessions only.
	meGroup := router.Group("/api/me")
	meGroup.Use(authRequired)
	meGroup.Use(middleware.RequireSession())
	meGroup.Use(rateLimit(generalLimit))
	{
		meGroup.GET("", meHandlers.ProfileHandler())
		meGroup.PATCH("/details/:detail/:value", meHandlers.UpdateDetailHandler())

		meGroup.GET("/api-keys", meHandlers.ListAPIKeysHandler())
		meGroup.POST("/api-keys", meHandlers.CreateAPIKeyHandler())
		meGroup.GET("/api-keys/:id", meHandlers.GetAPIKeyHandler())
		meGroup.DELETE("/api-keys/:id", meHandlers.RevokeAPIKeyHandler())

		meGroup.GET("/sessions", meHandlers.ListSessionsHandler())
		meGroup.DELETE("/sessions/:id", meHandlers.RevokeSessionHandler())

		meGroup.GET("/recent-api-logs", meHandlers.RecentLogsHandler())
		meGroup.GET("/all-api-logs/:limit/:skip", meHandlers.AllLogsHandler())
		meGroup.GET("/total-api-logs", meHandlers.TotalLogsHandler())
	}

	// Programmatic surface. Session or API key, role-checked per group, every
	// request recorded in the usage log with its final status code.
	v1 := router.Group("/v1")
	v1.Use(authRequired)
	v1.Use(rateLimit(generalLimit))
	v1.Use(middleware.UsageLogMiddleware(usageRepo))
	{
		v1.GET("/watcher/", watcherHandlers.MissingIDHandler())
		v1.GET("/watcher/:discord_id", middleware.RequireRole(auth.RoleDefault), watcherHandlers.LookupHandler())

		cmsGroup := v1.Group("/ldev-cms")
		cmsGroup.Use(middleware.RequireRole(auth.RoleCMS))
		{
			cmsGroup.GET("/people", cmsHandlers.PeopleHandler())
			cmsGroup.GET("/people/:slug", cmsHandlers.PersonHandler())
			cmsGroup.GET("/projects", cmsHandlers.ProjectsHandler())
			cmsGroup.GET("/projects/:slug", cmsHandlers.ProjectHandler())
		}

		v1.GET("/color-tools/check_brightness", middleware.RequireRole(auth.RoleDefault), colorHandlers.CheckBrightnessHandler())
		v1.GET("/image-tools/dominant_colors", middleware.RequireRole(auth.RoleDefault), imageHandlers.DominantColorsHandler())
	}

	return router, bg
}

// @Summary      Welcome
// @Tags         System
// @Produce      json
// @Success      200  {object}  respond.Envelope
// @Router       / [get]
// welcomeHandler greets unauthenticated visitors
func welcomeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		respond.OK(c, http.StatusOK, "Welcome to the Lagden Development API", gin.H{
			"version": Version,
		})
	}
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks database, Redis, and the CMS upstream.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks: map"
// @Failure      503  {object}  map[string]interface{}  "ready: false, checks: map"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks Redis and the CMS
// upstream so a readiness gate fails when proxied requests would error.
func readinessHandler(db *sql.DB, redisCache *cache.RedisCache, cmsClient cms.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}
		ready := true

		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			ready = false
		} else {
			checks["database"] = "healthy"
		}

		if redisCache != nil {
			if err := redisCache.Ping(c.Request.Context()); err != nil {
				checks["redis"] = "unhealthy"
				ready = false
			} else {
				checks["redis"] = "healthy"
			}
		}

		if err := cmsClient.Ready(c.Request.Context()); err != nil {
			checks["cms"] = "unhealthy"
			ready = false
		} else {
			checks["cms"] = "healthy"
		}

		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":  ready,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     Version,
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging through slog.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.Any("request_id", requestID),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Check if origin is allowed
		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
