// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package dberr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sevasetu/api/internal/platform/apperr"
)

func TestWrap(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "no rows maps to not found",
			err:      pgx.ErrNoRows,
			wantCode: "NOT_FOUND",
		},
		{
			name:     "wrapped no rows maps to not found",
			err:      fmt.Errorf("query failed: %w", pgx.ErrNoRows),
			wantCode: "NOT_FOUND",
		},
		{
			name:     "unique violation maps to conflict",
			err:      &pgconn.PgError{Code: "23505", ConstraintName: "idx_account_email_live"},
			wantCode: "CONFLICT",
		},
		{
			name:     "foreign key violation maps to conflict",
			err:      &pgconn.PgError{Code: "23503"},
			wantCode: "CONFLICT",
		},
		{
			name:     "unknown database error maps to internal",
			err:      errors.New("connection refused"),
			wantCode: "INTERNAL_ERROR",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			wrapped := Wrap(testCase.err, "test_action")
			assert.True(t, apperr.IsCode(wrapped, testCase.wantCode),
				"expected code %s, got %v", testCase.wantCode, wrapped)
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "test_action"))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(Wrap(pgx.ErrNoRows, "lookup")))
	assert.False(t, IsNotFound(Wrap(&pgconn.PgError{Code: "23505"}, "insert")))
	assert.False(t, IsNotFound(nil))
}
