// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

/*
Package otp manages the lifecycle of short-lived numeric one-time codes.

Codes are scoped by purpose (account verification, password reset, login) and
bounded in three dimensions: time (per-purpose TTL), attempts (3 wrong guesses
invalidate the code) and uniqueness (requesting a new code atomically replaces
any prior unconsumed code for the same user and purpose).

Only the SHA-256 hash of a code is persisted; the plaintext exists exactly once,
in the delivery message.
*/
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/sevasetu/api/internal/notify"
	"github.com/sevasetu/api/internal/platform/sec"
	"github.com/sevasetu/api/pkg/uuid"
)

// Purpose scopes a code to the flow it was requested for. A verification code
// can never be replayed into a password reset.
type Purpose string

const (
	PurposeVerification  Purpose = "verification"
	PurposePasswordReset Purpose = "password_reset"
	PurposeLogin         Purpose = "login"
)

// TTL returns the per-purpose validity window.
func (p Purpose) TTL() time.Duration {
	switch p {
	case PurposeLogin:
		return 5 * time.Minute
	default:
		// verification and password_reset
		return 10 * time.Minute
	}
}

// Valid reports whether the purpose is a known value.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeVerification, PurposePasswordReset, PurposeLogin:
		return true
	}
	return false
}

const (
	// codeDigits is the fixed length of a generated code.
	codeDigits = 6
	// MaxAttempts bounds brute-force guessing of the 6-digit space.
	MaxAttempts = 3
)

// Result is the outcome of a verification attempt.
type Result int

const (
	// ResultOk means the code matched and was consumed.
	ResultOk Result = iota
	// ResultInvalid means the code did not match, or no code is pending.
	ResultInvalid
	// ResultExpired means the pending code's TTL has elapsed.
	ResultExpired
	// ResultAttemptsExceeded means the pending code has been guessed wrong
	// too many times and a new code must be requested.
	ResultAttemptsExceeded
)

// Service issues and verifies one-time codes.
type Service interface {
	// Request generates, persists and dispatches a fresh code, superseding
	// any prior unconsumed code for (userID, purpose).
	Request(ctx context.Context, userID string, purpose Purpose, channel notify.Channel, destination string) error

	// Verify checks a supplied code against the pending one. ResultOk consumes
	// the code; it can never be returned twice for the same code.
	Verify(ctx context.Context, userID string, purpose Purpose, suppliedCode string) (Result, error)
}

// service implements [Service] on top of a [Store] and a delivery [notify.Sender].
type service struct {
	store  Store
	sender notify.Sender
	logger *slog.Logger
	now    func() time.Time
}

/*
NewService creates the one-time code service.

Parameters:
  - store: Code persistence (PostgreSQL in production)
  - sender: Delivery collaborator (email/SMS)
  - logger: Structured logger
*/
func NewService(store Store, sender notify.Sender, logger *slog.Logger) Service {
	return &service{
		store:  store,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// NewServiceWithClock is like [NewService] but with an injectable clock for tests.
func NewServiceWithClock(store Store, sender notify.Sender, logger *slog.Logger, clock func() time.Time) Service {
	return &service{
		store:  store,
		sender: sender,
		logger: logger,
		now:    clock,
	}
}

/*
Request generates a fresh code for (userID, purpose) and dispatches it.

Description: Supersession is an atomic delete-then-insert at the storage layer,
so there is never ambiguity about which code is current. If delivery fails the
persisted code is rolled back: a generated-but-undelivered code would otherwise
silently lock the member out until it expires.

Returns:
  - error: Storage or delivery failures
*/
func (service *service) Request(ctx context.Context, userID string, purpose Purpose, channel notify.Channel, destination string) error {
	if !purpose.Valid() {
		return fmt.Errorf("otp: unknown purpose %q", purpose)
	}

	plaintext, err := generateCode()
	if err != nil {
		return fmt.Errorf("otp: code generation failed: %w", err)
	}

	now := service.now()
	code := &Code{
		ID:        uuid.New(),
		UserID:    userID,
		Purpose:   purpose,
		CodeHash:  sec.HashToken(plaintext),
		Attempts:  0,
		Consumed:  false,
		ExpiresAt: now.Add(purpose.TTL()),
		CreatedAt: now,
	}

	if err := service.store.Replace(ctx, code); err != nil {
		return fmt.Errorf("otp: persist failed: %w", err)
	}

	if err := service.sender.SendCode(ctx, channel, destination, plaintext, string(purpose)); err != nil {
		// Roll back so the member can immediately request again.
		if deleteErr := service.store.Delete(ctx, code.ID); deleteErr != nil {
			service.logger.Error("otp_rollback_failed",
				slog.String("code_id", code.ID),
				slog.Any("error", deleteErr),
			)
		}
		return fmt.Errorf("otp: delivery failed: %w", err)
	}

	service.logger.Info("otp_requested",
		slog.String("user_id", userID),
		slog.String("purpose", string(purpose)),
	)

	return nil
}

/*
Verify checks suppliedCode against the pending code for (userID, purpose).

Description: A successful match consumes the code in the same conditional
storage operation that validates it, so two concurrent verifications of one
code can never both succeed. Wrong guesses are counted atomically; the guess
that reaches the ceiling invalidates the code.

Returns:
  - Result: Ok | Invalid | Expired | AttemptsExceeded
  - error: Storage failures only (never a business outcome)
*/
func (service *service) Verify(ctx context.Context, userID string, purpose Purpose, suppliedCode string) (Result, error) {
	code, err := service.store.FindPending(ctx, userID, purpose)
	if err != nil {
		return ResultInvalid, fmt.Errorf("otp: lookup failed: %w", err)
	}
	if code == nil {
		return ResultInvalid, nil
	}

	now := service.now()

	if now.After(code.ExpiresAt) {
		return ResultExpired, nil
	}

	if code.Attempts >= MaxAttempts {
		return ResultAttemptsExceeded, nil
	}

	if sec.HashToken(suppliedCode) != code.CodeHash {
		attempts, err := service.store.IncrementAttempts(ctx, code.ID)
		if err != nil {
			return ResultInvalid, fmt.Errorf("otp: attempt count failed: %w", err)
		}

		if attempts >= MaxAttempts {
			service.logger.Warn("otp_attempts_exceeded",
				slog.String("user_id", userID),
				slog.String("purpose", string(purpose)),
			)
			return ResultAttemptsExceeded, nil
		}

		return ResultInvalid, nil
	}

	// Single conditional update: succeeds exactly once per code.
	consumed, err := service.store.Consume(ctx, code.ID, now)
	if err != nil {
		return ResultInvalid, fmt.Errorf("otp: consume failed: %w", err)
	}
	if !consumed {
		// Lost the race against a concurrent verification or expiry.
		return ResultInvalid, nil
	}

	service.logger.Info("otp_verified",
		slog.String("user_id", userID),
		slog.String("purpose", string(purpose)),
	)

	return ResultOk, nil
}

// generateCode draws a zero-padded 6-digit code from crypto/rand.
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
