// usagelog.go provides Gin middleware that records every authenticated request
// to the usage log after the response has been written.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lagden-dev/ldev-api/internal/api/respond"
	"github.com/lagden-dev/ldev-api/internal/db/models"
	"github.com/lagden-dev/ldev-api/internal/db/repositories"
	"github.com/lagden-dev/ldev-api/internal/safego"
	"github.com/lagden-dev/ldev-api/internal/telemetry"
)

// UsageLogMiddleware records authenticated requests asynchronously. The write
// happens after the handler so the final status code is captured, and off the
// request goroutine so a slow insert never delays the response. A failed write
// is counted and logged but never surfaces to the client.
func UsageLogMiddleware(usageRepo *repositories.UsageLogRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request first
		c.Next()

		// Skip OPTIONS always
		if c.Request.Method == "OPTIONS" {
			return
		}

		// Only requests that resolved an identity are logged
		accountID, ok := c.Get(AccountIDKey)
		if !ok {
			return
		}
		accountIDStr, ok := accountID.(string)
		if !ok {
			return
		}

		entry := &models.UsageLogEntry{
			AccountID:  accountIDStr,
			Route:      c.FullPath(),
			Method:     c.Request.Method,
			StatusCode: c.Writer.Status(),
			CreatedAt:  time.Now(),
		}

		// c.FullPath is empty for unmatched routes; fall back to the raw path
		if entry.Route == "" {
			entry.Route = c.Request.URL.Path
		}

		if keyID, ok := c.Get(APIKeyIDKey); ok {
			if id, ok := keyID.(string); ok {
				entry.APIKeyID = &id
			}
		}

		if errMsg, ok := c.Get(respond.UsageErrorKey); ok {
			if msg, ok := errMsg.(string); ok && msg != "" {
				entry.Error = &msg
			}
		}

		safego.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := usageRepo.Record(ctx, entry); err != nil {
				telemetry.UsageLogWriteFailuresTotal.Inc()
				slog.Warn("failed to record usage log entry",
					"account_id", entry.AccountID,
					"route", entry.Route,
					"error", err)
			}
		})
	}
}
