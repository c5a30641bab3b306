// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package otp

import (
	"context"
	"time"
)

// # Entities

// Code is one issued one-time code. Only the SHA-256 hash is persisted.
type Code struct {
	ID        string
	UserID    string
	Purpose   Purpose
	CodeHash  string
	Attempts  int
	Consumed  bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// # Storage Contract

// Store persists one-time codes in the users.onetimecode table.
type Store interface {
	// Replace atomically deletes all unconsumed codes for (code.UserID,
	// code.Purpose) and inserts the new one, in a single transaction.
	Replace(ctx context.Context, code *Code) error

	// FindPending returns the current unconsumed code for (userID, purpose),
	// expired or not, or nil when none exists.
	FindPending(ctx context.Context, userID string, purpose Purpose) (*Code, error)

	// Consume marks the code consumed iff it is still unconsumed and
	// unexpired at the given time. Reports whether this call won.
	Consume(ctx context.Context, codeID string, now time.Time) (bool, error)

	// IncrementAttempts atomically bumps the wrong-guess counter and returns
	// the new value.
	IncrementAttempts(ctx context.Context, codeID string) (int, error)

	// Delete removes a single code (delivery-failure rollback).
	Delete(ctx context.Context, codeID string) error

	// DeleteExpired garbage-collects codes whose expiry is before the cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
