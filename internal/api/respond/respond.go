// Package respond writes the uniform response envelope used by every
// endpoint: {"ok": bool, "status": int, "message": string, "data": {...}}.
// Handlers and middleware go through this package so clients can rely on one
// shape for successes and failures alike.
package respond

import (
	"github.com/gin-gonic/gin"
)

// Envelope is the wire shape of every response
type Envelope struct {
	OK      bool        `json:"ok"`
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// UsageErrorKey is the context key under which the error message of a failed
// request is stashed for the usage log middleware.
const UsageErrorKey = "usage_error"

// OK writes a success envelope
func OK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		OK:      true,
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// Error writes a failure envelope. The message must be safe to show to
// clients; internal error detail belongs in logs, not responses.
func Error(c *gin.Context, status int, message string) {
	c.Set(UsageErrorKey, message)
	c.JSON(status, Envelope{
		OK:      false,
		Status:  status,
		Message: message,
	})
}

// AbortError writes a failure envelope and stops the handler chain.
// For use in middleware.
func AbortError(c *gin.Context, status int, message string) {
	c.Set(UsageErrorKey, message)
	c.AbortWithStatusJSON(status, Envelope{
		OK:      false,
		Status:  status,
		Message: message,
	})
}
