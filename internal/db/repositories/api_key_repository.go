// api_key_repository.go implements APIKeyRepository, providing database queries for API key
// lookup by prefix, creation, revocation, and use accounting.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/lagden-dev/ldev-api/internal/db/models"
)

// APIKeyRepository handles API key database operations
type APIKeyRepository struct {
	db *sql.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// CreateAPIKey creates a new API key
func (r *APIKeyRepository) CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	apiKey.ID = uuid.New().String()
	apiKey.CreatedAt = time.Now()

	// Marshal roles to JSONB
	rolesJSON, err := json.Marshal(apiKey.Roles)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO api_keys (id, account_id, description, key_hash, key_prefix, roles, uses, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		apiKey.ID,
		apiKey.AccountID,
		apiKey.Description,
		apiKey.KeyHash,
		apiKey.KeyPrefix,
		rolesJSON,
		apiKey.Uses,
		apiKey.CreatedAt,
		apiKey.LastUsedAt,
	)

	return err
}

// GetAPIKeyByID retrieves an API key by ID
func (r *APIKeyRepository) GetAPIKeyByID(ctx context.Context, keyID string) (*models.APIKey, error) {
	query := `
		SELECT id, account_id, description, key_hash, key_prefix, roles, uses, created_at, last_used_at
		FROM api_keys
		WHERE id = $1
	`

	apiKey := &models.APIKey{}
	var rolesJSON []byte

	err := r.db.QueryRowContext(ctx, query, keyID).Scan(
		&apiKey.ID,
		&apiKey.AccountID,
		&apiKey.Description,
		&apiKey.KeyHash,
		&apiKey.KeyPrefix,
		&rolesJSON,
		&apiKey.Uses,
		&apiKey.CreatedAt,
		&apiKey.LastUsedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	// Unmarshal roles from JSONB
	err = json.Unmarshal(rolesJSON, &apiKey.Roles)
	if err != nil {
		return nil, err
	}

	return apiKey, nil
}

// ListAPIKeysByAccount retrieves all API keys for an account
func (r *APIKeyRepository) ListAPIKeysByAccount(ctx context.Context, accountID string) ([]*models.APIKey, error) {
	query := `
		SELECT id, account_id, description, key_hash, key_prefix, roles, uses, created_at, last_used_at
		FROM api_keys
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apiKeys := make([]*models.APIKey, 0)
	for rows.Next() {
		apiKey := &models.APIKey{}
		var rolesJSON []byte

		err := rows.Scan(
			&apiKey.ID,
			&apiKey.AccountID,
			&apiKey.Description,
			&apiKey.KeyHash,
			&apiKey.KeyPrefix,
			&rolesJSON,
			&apiKey.Uses,
			&apiKey.CreatedAt,
			&apiKey.LastUsedAt,
		)
		if err != nil {
			return nil, err
		}

		// Unmarshal roles from JSONB
		err = json.Unmarshal(rolesJSON, &apiKey.Roles)
		if err != nil {
			return nil, err
		}

		apiKeys = append(apiKeys, apiKey)
	}

	return apiKeys, rows.Err()
}

// GetAPIKeysByPrefix retrieves API keys matching a prefix (for authentication)
func (r *APIKeyRepository) GetAPIKeysByPrefix(ctx context.Context, keyPrefix string) ([]*models.APIKey, error) {
	query := `
		SELECT id, account_id, description, key_hash, key_prefix, roles, uses, created_at, last_used_at
		FROM api_keys
		WHERE key_prefix = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, keyPrefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apiKeys := make([]*models.APIKey, 0)
	for rows.Next() {
		apiKey := &models.APIKey{}
		var rolesJSON []byte

		err := rows.Scan(
			&apiKey.ID,
			&apiKey.AccountID,
			&apiKey.Description,
			&apiKey.KeyHash,
			&apiKey.KeyPrefix,
			&rolesJSON,
			&apiKey.Uses,
			&apiKey.CreatedAt,
			&apiKey.LastUsedAt,
		)
		if err != nil {
			return nil, err
		}

		// Unmarshal roles from JSONB
		err = json.Unmarshal(rolesJSON, &apiKey.Roles)
		if err != nil {
			return nil, err
		}

		apiKeys = append(apiKeys, apiKey)
	}

	return apiKeys, rows.Err()
}

// RecordUse atomically increments the key's use counter and stamps last_used_at.
// A single UPDATE so concurrent requests never lose increments.
func (r *APIKeyRepository) RecordUse(ctx context.Context, keyID string) error {
	query := `
		UPDATE api_keys
		SET uses = uses + 1, last_used_at = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, keyID, time.Now())
	return err
}

// UpdateRoles replaces the key's role set
func (r *APIKeyRepository) UpdateRoles(ctx context.Context, keyID string, roles []string) error {
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return err
	}

	query := `UPDATE api_keys SET roles = $2 WHERE id = $1`
	_, err = r.db.ExecContext(ctx, query, keyID, rolesJSON)
	return err
}

// RevokeAPIKey deletes an API key scoped to an account. Returns the number of
// rows deleted so callers can return the same NotFound for missing keys and
// keys owned by someone else.
func (r *APIKeyRepository) RevokeAPIKey(ctx context.Context, keyID, accountID string) (int64, error) {
	query := `DELETE FROM api_keys WHERE id = $1 AND account_id = $2`

	result, err := r.db.ExecContext(ctx, query, keyID, accountID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
