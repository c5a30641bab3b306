// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

// PostgreSQL implementations of the durable repositories.
//
// # Architecture
//
// Repositories here are strictly separated from domain logic. They implement
// the domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/database/schema"
	"github.com/sevasetu/api/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// userColumns is the canonical select list for hydrating a [User].
var userColumns = strings.Join([]string{
	schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Phone,
	schema.UserAccount.Password, schema.UserAccount.DisplayName, schema.UserAccount.Role,
	schema.UserAccount.Status, schema.UserAccount.EmailVerified, schema.UserAccount.PhoneVerified,
	schema.UserAccount.LastLoginAt, schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
}, ", ")

// scanUser hydrates a single account row.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.DisplayName,
		&user.Role,
		&user.Status,
		&user.EmailVerified,
		&user.PhoneVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s,
			%s, %s, %s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Phone,
		schema.UserAccount.Password, schema.UserAccount.DisplayName, schema.UserAccount.Role,
		schema.UserAccount.Status, schema.UserAccount.EmailVerified, schema.UserAccount.PhoneVerified,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.DisplayName,
		user.Role,
		user.Status,
		user.EmailVerified,
		user.PhoneVerified,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		// A racing duplicate passes the service's pre-check and trips the
		// partial unique index here; the bridge turns that into a Conflict.
		return dberr.Wrap(err, "create_user")
	}

	return nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Performs a lookup on the account table, filtering out soft-deleted users.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		userColumns, schema.UserAccount.Table,
		schema.UserAccount.Email, schema.UserAccount.DeletedAt,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByPhone retrieves a user record by their unique mobile number.

Parameters:
  - context: context.Context
  - phone: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByPhone(context context.Context, phone string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		userColumns, schema.UserAccount.Table,
		schema.UserAccount.Phone, schema.UserAccount.DeletedAt,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this phone number")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_phone_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: Not found or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		userColumns, schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.Password, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
MarkEmailVerified flips emailverified and activates a pending account.

Description: The status transition is folded into the same UPDATE so a
concurrent verification can never observe a verified-but-pending account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkEmailVerified(context context.Context, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE,
		    %s = CASE WHEN %s = 'pending' THEN 'active' ELSE %s END,
		    %s = $2
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.EmailVerified,
		schema.UserAccount.Status, schema.UserAccount.Status, schema.UserAccount.Status,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_email_verified_failed: %w", err)
	}
	return nil
}

/*
MarkPhoneVerified flips phoneverified and activates a pending account.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkPhoneVerified(context context.Context, userID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE,
		    %s = CASE WHEN %s = 'pending' THEN 'active' ELSE %s END,
		    %s = $2
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.PhoneVerified,
		schema.UserAccount.Status, schema.UserAccount.Status, schema.UserAccount.Status,
		schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_phone_verified_failed: %w", err)
	}
	return nil
}

/*
RecordLogin stamps the account's last successful login time.

Parameters:
  - context: context.Context
  - userID: string
  - at: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) RecordLogin(context context.Context, userID string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $2 WHERE %s = $1",
		schema.UserAccount.Table, schema.UserAccount.LastLoginAt, schema.UserAccount.ID)
	_, err := repository.pool.Exec(context, query, userID, at)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_record_login_failed: %w", err)
	}
	return nil
}

// # Remember Token Repository

// PostgresRememberTokenRepository implements RememberTokenRepository using pgx.
type PostgresRememberTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRememberTokenRepository creates a new PostgreSQL implementation of RememberTokenRepository.
func NewRememberTokenRepository(pool *pgxpool.Pool) *PostgresRememberTokenRepository {
	return &PostgresRememberTokenRepository{pool: pool}
}

/*
Replace deletes the user's prior token and inserts the new one transactionally.

Description: Enforces the at-most-one-live-token-per-user invariant at the
storage layer instead of trusting callers to clean up first.

Parameters:
  - context: context.Context
  - token: *RememberToken

Returns:
  - error: Transaction failures
*/
func (repository *PostgresRememberTokenRepository) Replace(context context.Context, token *RememberToken) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_remember_repo_replace_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.UserRememberToken.Table, schema.UserRememberToken.UserID)
	if _, err := transaction.Exec(context, deleteQuery, token.UserID); err != nil {
		return fmt.Errorf("postgres_remember_repo_replace_delete_failed: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.UserRememberToken.Table,
		schema.UserRememberToken.ID, schema.UserRememberToken.UserID,
		schema.UserRememberToken.TokenHash, schema.UserRememberToken.ExpiresAt,
		schema.UserRememberToken.CreatedAt,
	)

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err = transaction.Exec(context, insertQuery,
		token.ID,
		token.UserID,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "replace_remember_token")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_remember_repo_replace_commit_failed: %w", err)
	}

	return nil
}

/*
FindByHash retrieves an unexpired remember token by its hash.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *RememberToken: Hydrated entity, or nil when absent/expired
  - error: Execution errors
*/
func (repository *PostgresRememberTokenRepository) FindByHash(context context.Context, tokenHash string) (*RememberToken, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s > NOW()`,
		schema.UserRememberToken.ID, schema.UserRememberToken.UserID,
		schema.UserRememberToken.TokenHash, schema.UserRememberToken.ExpiresAt,
		schema.UserRememberToken.CreatedAt,
		schema.UserRememberToken.Table,
		schema.UserRememberToken.TokenHash, schema.UserRememberToken.ExpiresAt,
	)

	token := &RememberToken{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_remember_repo_find_failed: %w", err)
	}

	return token, nil
}

/*
DeleteByUser removes the user's remember token.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresRememberTokenRepository) DeleteByUser(context context.Context, userID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.UserRememberToken.Table, schema.UserRememberToken.UserID)
	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_remember_repo_delete_by_user_failed: %w", err)
	}
	return nil
}

/*
DeleteExpired garbage-collects tokens past their expiry.

Parameters:
  - context: context.Context
  - cutoff: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresRememberTokenRepository) DeleteExpired(context context.Context, cutoff time.Time) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s < $1",
		schema.UserRememberToken.Table, schema.UserRememberToken.ExpiresAt)
	if _, err := repository.pool.Exec(context, query, cutoff); err != nil {
		return fmt.Errorf("postgres_remember_repo_delete_expired_failed: %w", err)
	}
	return nil
}

var (
	_ UserRepository          = (*PostgresUserRepository)(nil)
	_ RememberTokenRepository = (*PostgresRememberTokenRepository)(nil)
)
