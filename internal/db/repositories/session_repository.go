// session_repository.go implements SessionRepository, providing database queries
// for session creation, validation, listing, revocation, and expiry sweeps.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lagden-dev/ldev-api/internal/db/models"
)

// SessionRepository handles session database operations
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateSession inserts a new session row. The caller supplies the token as
// the session ID; it is never regenerated here.
func (r *SessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.CreatedAt = time.Now()
	session.LastUsedAt = session.CreatedAt

	query := `
		INSERT INTO sessions (id, account_id, ip, created_at, last_used_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.AccountID,
		session.IP,
		session.CreatedAt,
		session.LastUsedAt,
		session.ExpiresAt,
	)

	return err
}

// GetSession retrieves a session by token
func (r *SessionRepository) GetSession(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT id, account_id, ip, created_at, last_used_at, expires_at
		FROM sessions
		WHERE id = $1
	`

	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.ID,
		&session.AccountID,
		&session.IP,
		&session.CreatedAt,
		&session.LastUsedAt,
		&session.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return session, nil
}

// ListSessionsByAccount retrieves all sessions for an account, most recently used first
func (r *SessionRepository) ListSessionsByAccount(ctx context.Context, accountID string) ([]*models.Session, error) {
	query := `
		SELECT id, account_id, ip, created_at, last_used_at, expires_at
		FROM sessions
		WHERE account_id = $1
		ORDER BY last_used_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session := &models.Session{}
		err := rows.Scan(
			&session.ID,
			&session.AccountID,
			&session.IP,
			&session.CreatedAt,
			&session.LastUsedAt,
			&session.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

// UpdateLastUsed updates the last_used_at timestamp for a session
func (r *SessionRepository) UpdateLastUsed(ctx context.Context, token string) error {
	query := `
		UPDATE sessions
		SET last_used_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, token, time.Now())
	return err
}

// DeleteSession deletes a session scoped to an account. Returns the number of
// rows deleted so callers can distinguish "gone" from "not yours".
func (r *SessionRepository) DeleteSession(ctx context.Context, sessionID, accountID string) (int64, error) {
	query := `DELETE FROM sessions WHERE id = $1 AND account_id = $2`

	result, err := r.db.ExecContext(ctx, query, sessionID, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteSessionByDisplayID deletes a session addressed by its truncated ID, as
// shown in listings. Scoped to the account so a prefix collision across
// accounts cannot delete someone else's session.
func (r *SessionRepository) DeleteSessionByDisplayID(ctx context.Context, displayID, accountID string) (int64, error) {
	query := `DELETE FROM sessions WHERE account_id = $2 AND left(id, 8) = $1`

	result, err := r.db.ExecContext(ctx, query, displayID, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteExpiredSessions deletes all sessions past their expiry (for the reaper job)
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
