// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package account

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
	"github.com/sevasetu/api/internal/users/auth"
	"github.com/sevasetu/api/pkg/pagination"
)

// PostgresAccountRepository implements AccountRepository using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// accountColumns is the canonical select list for hydrating an [auth.User].
var accountColumns = strings.Join([]string{
	schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Phone,
	schema.UserAccount.Password, schema.UserAccount.DisplayName, schema.UserAccount.Role,
	schema.UserAccount.Status, schema.UserAccount.EmailVerified, schema.UserAccount.PhoneVerified,
	schema.UserAccount.LastLoginAt, schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
}, ", ")

// scanAccount hydrates a single account row.
func scanAccount(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
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
FindByID retrieves a member account by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *auth.User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 AND %s IS NULL`,
		accountColumns, schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	user, err := scanAccount(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Member")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
UpdateProfile persists the mutable profile fields of an account.

Parameters:
  - context: context.Context
  - user: *auth.User

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) UpdateProfile(context context.Context, user *auth.User) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.DisplayName, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	_, err := repository.pool.Exec(context, query, user.ID, user.DisplayName, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_failed: %w", err)
	}

	return nil
}

/*
List returns one page of the member directory plus the total count.

Description: Filters compose with AND; the search term matches email, phone
and display name case-insensitively. Soft-deleted accounts are excluded.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []*auth.User: Page of members, newest first
  - int: Total matching members
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error) {
	where := fmt.Sprintf("WHERE %s IS NULL", schema.UserAccount.DeletedAt)
	args := []any{}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND %s = $%d", schema.UserAccount.Status, len(args))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		where += fmt.Sprintf(" AND %s = $%d", schema.UserAccount.Role, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND (%s ILIKE $%d OR %s ILIKE $%d OR %s ILIKE $%d)",
			schema.UserAccount.Email, len(args),
			schema.UserAccount.Phone, len(args),
			schema.UserAccount.DisplayName, len(args))
	}

	// Total first, so the page and the count see the same filter.
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", schema.UserAccount.Table, where)
	var total int
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	args = append(args, params.Limit, params.Offset())
	pageQuery := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d`,
		accountColumns, schema.UserAccount.Table, where,
		schema.UserAccount.CreatedAt, len(args)-1, len(args))

	rows, err := repository.pool.Query(context, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	members := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		members = append(members, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return members, total, nil
}

/*
SetStatus transitions the account's lifecycle state.

Parameters:
  - context: context.Context
  - userID: string
  - status: auth.Status

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) SetStatus(context context.Context, userID string, status auth.Status) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.Status, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	_, err := repository.pool.Exec(context, query, userID, status, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_set_status_failed: %w", err)
	}

	return nil
}

/*
SoftDelete marks the account as deleted without removing the row.

Description: Idempotent — re-deleting keeps the original deletion timestamp.

Parameters:
  - context: context.Context
  - userID: string
  - at: time.Time

Returns:
  - error: Execution errors
*/
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, userID string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $2
		WHERE %s = $1 AND %s IS NULL`,
		schema.UserAccount.Table,
		schema.UserAccount.DeletedAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID, schema.UserAccount.DeletedAt,
	)

	_, err := repository.pool.Exec(context, query, userID, at)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}

	return nil
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
