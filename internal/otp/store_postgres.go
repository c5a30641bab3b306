// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sevasetu/api/internal/platform/database/schema"
)

// # Code Repository

// PostgresStore implements the [Store] interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the code [Store].
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Replace supersedes prior codes and inserts the new one in a single transaction.

Description: Deletes every unconsumed code for (userID, purpose) and inserts
the replacement. Running both statements in one transaction guarantees there
is exactly one current code per pair at any point in time.

Parameters:
  - context: context.Context
  - code: *Code (Entity to persist)

Returns:
  - error: Transaction or execution failures
*/
func (repository *PostgresStore) Replace(context context.Context, code *Code) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_replace_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	deleteQuery := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = FALSE`,
		schema.UserOneTimeCode.Table,
		schema.UserOneTimeCode.UserID, schema.UserOneTimeCode.Purpose,
		schema.UserOneTimeCode.Consumed,
	)

	if _, err := transaction.Exec(context, deleteQuery, code.UserID, code.Purpose); err != nil {
		return fmt.Errorf("postgres_otp_repo_replace_delete_failed: %w", err)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (
			%s, %s, %s, %s, %s, %s, %s, %s
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		schema.UserOneTimeCode.Table,
		schema.UserOneTimeCode.ID, schema.UserOneTimeCode.UserID,
		schema.UserOneTimeCode.Purpose, schema.UserOneTimeCode.CodeHash,
		schema.UserOneTimeCode.Attempts, schema.UserOneTimeCode.Consumed,
		schema.UserOneTimeCode.ExpiresAt, schema.UserOneTimeCode.CreatedAt,
	)

	_, err = transaction.Exec(context, insertQuery,
		code.ID,
		code.UserID,
		code.Purpose,
		code.CodeHash,
		code.Attempts,
		code.Consumed,
		code.ExpiresAt,
		code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_replace_insert_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_otp_repo_replace_commit_failed: %w", err)
	}

	return nil
}

/*
FindPending retrieves the current unconsumed code for (userID, purpose).

Parameters:
  - context: context.Context
  - userID: string (UUIDv7)
  - purpose: Purpose

Returns:
  - *Code: Hydrated code entity, or nil when no code is pending
  - error: Execution errors
*/
func (repository *PostgresStore) FindPending(context context.Context, userID string, purpose Purpose) (*Code, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1 AND %s = $2 AND %s = FALSE
		ORDER BY %s DESC
		LIMIT 1`,
		schema.UserOneTimeCode.ID, schema.UserOneTimeCode.UserID,
		schema.UserOneTimeCode.Purpose, schema.UserOneTimeCode.CodeHash,
		schema.UserOneTimeCode.Attempts, schema.UserOneTimeCode.Consumed,
		schema.UserOneTimeCode.ExpiresAt, schema.UserOneTimeCode.CreatedAt,
		schema.UserOneTimeCode.Table,
		schema.UserOneTimeCode.UserID, schema.UserOneTimeCode.Purpose,
		schema.UserOneTimeCode.Consumed,
		schema.UserOneTimeCode.CreatedAt,
	)

	code := &Code{}
	err := repository.pool.QueryRow(context, query, userID, purpose).Scan(
		&code.ID,
		&code.UserID,
		&code.Purpose,
		&code.CodeHash,
		&code.Attempts,
		&code.Consumed,
		&code.ExpiresAt,
		&code.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres_otp_repo_find_pending_failed: %w", err)
	}

	return code, nil
}

/*
Consume marks a code consumed, succeeding at most once.

Description: The WHERE clause re-checks consumed and expiry inside the single
UPDATE, so concurrent verifications of the same code resolve to exactly one
winner at the storage layer.

Parameters:
  - context: context.Context
  - codeID: string
  - now: time.Time (expiry reference)

Returns:
  - bool: true if this call consumed the code
  - error: Execution errors
*/
func (repository *PostgresStore) Consume(context context.Context, codeID string, now time.Time) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE
		WHERE %s = $1 AND %s = FALSE AND %s > $2`,
		schema.UserOneTimeCode.Table, schema.UserOneTimeCode.Consumed,
		schema.UserOneTimeCode.ID, schema.UserOneTimeCode.Consumed,
		schema.UserOneTimeCode.ExpiresAt,
	)

	tag, err := repository.pool.Exec(context, query, codeID, now)
	if err != nil {
		return false, fmt.Errorf("postgres_otp_repo_consume_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
IncrementAttempts atomically bumps the wrong-guess counter.

Parameters:
  - context: context.Context
  - codeID: string

Returns:
  - int: The new attempt count
  - error: Execution errors
*/
func (repository *PostgresStore) IncrementAttempts(context context.Context, codeID string) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = %s + 1
		WHERE %s = $1
		RETURNING %s`,
		schema.UserOneTimeCode.Table,
		schema.UserOneTimeCode.Attempts, schema.UserOneTimeCode.Attempts,
		schema.UserOneTimeCode.ID,
		schema.UserOneTimeCode.Attempts,
	)

	var attempts int
	if err := repository.pool.QueryRow(context, query, codeID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("postgres_otp_repo_increment_attempts_failed: %w", err)
	}

	return attempts, nil
}

/*
Delete removes a single code by ID.

Parameters:
  - context: context.Context
  - codeID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresStore) Delete(context context.Context, codeID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1",
		schema.UserOneTimeCode.Table, schema.UserOneTimeCode.ID)
	if _, err := repository.pool.Exec(context, query, codeID); err != nil {
		return fmt.Errorf("postgres_otp_repo_delete_failed: %w", err)
	}
	return nil
}

/*
DeleteExpired garbage-collects codes past their expiry.

Description: Cleanup task; correctness never depends on it because every read
re-checks expiresat.

Parameters:
  - context: context.Context
  - cutoff: time.Time

Returns:
  - int64: Number of rows removed
  - error: Execution errors
*/
func (repository *PostgresStore) DeleteExpired(context context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s < $1",
		schema.UserOneTimeCode.Table, schema.UserOneTimeCode.ExpiresAt)

	tag, err := repository.pool.Exec(context, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_otp_repo_delete_expired_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}

var _ Store = (*PostgresStore)(nil)
