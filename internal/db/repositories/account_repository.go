// account_repository.go implements AccountRepository, providing database queries
// for account creation, credential lookup, and profile updates.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/lagden-dev/ldev-api/internal/db/models"
)

// ErrDuplicateEmail is returned when an account with the same email already exists.
var ErrDuplicateEmail = errors.New("email already in use")

// AccountRepository handles account database operations
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount creates a new account. The email is stored lowercased so
// lookups are case-insensitive. A unique violation on the email column is
// translated to ErrDuplicateEmail.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	account.ID = uuid.New().String()
	account.Email = strings.ToLower(account.Email)
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt

	query := `
		INSERT INTO accounts (id, email, email_verified, password_hash, name, org, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.EmailVerified,
		account.PasswordHash,
		account.Name,
		account.Org,
		account.CreatedAt,
		account.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}

	return err
}

// GetAccountByEmail retrieves an account by email (case-insensitive)
func (r *AccountRepository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, email_verified, password_hash, name, org, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(email)).Scan(
		&account.ID,
		&account.Email,
		&account.EmailVerified,
		&account.PasswordHash,
		&account.Name,
		&account.Org,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccountByID retrieves an account by ID
func (r *AccountRepository) GetAccountByID(ctx context.Context, accountID string) (*models.Account, error) {
	query := `
		SELECT id, email, email_verified, password_hash, name, org, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&account.ID,
		&account.Email,
		&account.EmailVerified,
		&account.PasswordHash,
		&account.Name,
		&account.Org,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateName updates the account's display name
func (r *AccountRepository) UpdateName(ctx context.Context, accountID, name string) error {
	return r.updateField(ctx, accountID, "name", name)
}

// UpdateOrg updates the account's organization name
func (r *AccountRepository) UpdateOrg(ctx context.Context, accountID, org string) error {
	return r.updateField(ctx, accountID, "org", org)
}

func (r *AccountRepository) updateField(ctx context.Context, accountID, column, value string) error {
	// column is one of two hardcoded callers; never user input
	query := `UPDATE accounts SET ` + column + ` = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, accountID, value, time.Now())
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
