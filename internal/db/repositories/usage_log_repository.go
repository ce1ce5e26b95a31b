// usage_log_repository.go implements UsageLogRepository, providing database
// queries for appending usage log entries and the aggregation queries behind
// the dashboard metrics endpoints.
package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lagden-dev/ldev-api/internal/db/models"
)

// UsageLogRepository handles usage log database operations
type UsageLogRepository struct {
	db *sqlx.DB
}

// NewUsageLogRepository creates a new UsageLogRepository
func NewUsageLogRepository(db *sqlx.DB) *UsageLogRepository {
	return &UsageLogRepository{db: db}
}

// Record appends a usage log entry. The table is append-only; there are no
// update or delete paths.
func (r *UsageLogRepository) Record(ctx context.Context, entry *models.UsageLogEntry) error {
	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now()

	query := `
		INSERT INTO usage_logs (id, account_id, api_key_id, route, method, status_code, error, created_at)
		VALUES (:id, :account_id, :api_key_id, :route, :method, :status_code, :error, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, entry)
	return err
}

// Recent retrieves an account's usage log entries, newest first. An empty
// result for a non-zero offset means the caller has paginated past the end.
func (r *UsageLogRepository) Recent(ctx context.Context, accountID string, limit, offset int) ([]*models.UsageLogEntry, error) {
	query := `
		SELECT id, account_id, api_key_id, route, method, status_code, error, created_at
		FROM usage_logs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	entries := make([]*models.UsageLogEntry, 0)
	err := r.db.SelectContext(ctx, &entries, query, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Totals returns the account's lifetime request count plus the counts for the
// current and previous calendar months. date_trunc keeps the month boundaries
// in the database's timezone, which also makes the December→January rollover
// a non-issue.
func (r *UsageLogRepository) Totals(ctx context.Context, accountID string) (*models.UsageTotals, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE created_at >= date_trunc('month', now())) AS this_month,
			COUNT(*) FILTER (
				WHERE created_at >= date_trunc('month', now()) - interval '1 month'
				  AND created_at < date_trunc('month', now())
			) AS last_month
		FROM usage_logs
		WHERE account_id = $1
	`

	totals := &models.UsageTotals{}
	err := r.db.GetContext(ctx, totals, query, accountID)
	if err != nil {
		return nil, err
	}
	return totals, nil
}
