// Package models - usage_log.go defines the UsageLogEntry model, an append-only
// record of every authenticated request, written asynchronously after the
// response is sent.
package models

import "time"

// UsageLogEntry represents one authenticated request
type UsageLogEntry struct {
	ID         string    `db:"id"`
	AccountID  string    `db:"account_id"`
	APIKeyID   *string   `db:"api_key_id"` // Nil for session-authenticated requests
	Route      string    `db:"route"`
	Method     string    `db:"method"`
	StatusCode int       `db:"status_code"`
	Error      *string   `db:"error"` // Short error note when the request failed
	CreatedAt  time.Time `db:"created_at"`
}

// UsageTotals summarises an account's request volume for the metrics endpoint.
type UsageTotals struct {
	Total     int64 `db:"total"`
	ThisMonth int64 `db:"this_month"`
	LastMonth int64 `db:"last_month"`
}

// GrowthPercent computes month-over-month growth. A previous month with zero
// requests makes a ratio meaningless, so each current request counts as 100%.
func (t UsageTotals) GrowthPercent() float64 {
	if t.LastMonth == 0 {
		return float64(t.ThisMonth) * 100
	}
	return (float64(t.ThisMonth) - float64(t.LastMonth)) / float64(t.LastMonth) * 100
}
