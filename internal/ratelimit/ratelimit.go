// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

/*
Package ratelimit implements a category-based sliding-window rate limiter.

Each sensitive route group (login, OTP requests, contact forms, ...) is assigned
a Category with a statically configured (max requests, window) budget. Checks
count the caller's recorded events inside the trailing window: below budget the
event is recorded and the request is allowed, at budget the request is denied
with a retry-after hint and NO event is recorded, so a denied caller is never
pushed further away from recovery.

Identifiers are resolved by the HTTP middleware: the authenticated user ID when
present, otherwise the client network address.

# Fail-Closed

A storage failure never degrades into an open gate. When the backing store is
unreachable the check surfaces SERVICE_UNAVAILABLE and the request is denied.
*/
package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/sevasetu/api/internal/platform/apperr"
)

// Category identifies a rate-limit budget shared by a group of routes.
type Category string

// Route categories with independent budgets.
const (
	CategoryDefault Category = "default"
	CategoryAuth    Category = "auth"
	CategoryOtp     Category = "otp"
	CategoryApi     Category = "api"
	CategoryUpload  Category = "upload"
	CategoryContact Category = "contact"
)

// Config is the static (max requests, window) budget for one category.
type Config struct {
	// MaxRequests is the number of requests allowed inside one window.
	MaxRequests int
	// Window is the trailing time window the budget applies to.
	Window time.Duration
}

// DefaultConfigs returns the standard category table.
//
// The table is constructed once at process start and passed into the service;
// budgets are never looked up from ambient globals.
func DefaultConfigs() map[Category]Config {
	return map[Category]Config{
		CategoryDefault: {MaxRequests: 60, Window: 1 * time.Minute},
		CategoryAuth:    {MaxRequests: 10, Window: 15 * time.Minute},
		CategoryOtp:     {MaxRequests: 5, Window: 15 * time.Minute},
		CategoryApi:     {MaxRequests: 120, Window: 1 * time.Minute},
		CategoryUpload:  {MaxRequests: 10, Window: 10 * time.Minute},
		CategoryContact: {MaxRequests: 3, Window: 1 * time.Hour},
	}
}

// Decision is the outcome of a rate-limit check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// RetryAfter is how long a denied caller must wait before the oldest
	// in-window event falls out of the window. Zero when allowed.
	RetryAfter time.Duration
}

// service coordinates category budgets against the event store.
type service struct {
	store   Store
	configs map[Category]Config
	logger  *slog.Logger
	now     func() time.Time
}

// Service checks request budgets per (identifier, category).
type Service interface {
	// Check applies the category budget to the identifier. The returned error
	// is non-nil only for storage failures (surfaced as SERVICE_UNAVAILABLE).
	Check(ctx context.Context, identifier string, category Category) (Decision, error)
}

/*
NewService creates the rate-limit service.

Parameters:
  - store: Event storage (Redis in production, in-memory in tests)
  - configs: Category budget table (use [DefaultConfigs] unless testing)
  - logger: Structured logger for denial and failure events

Returns:
  - Service: Ready-to-use rate limiter
*/
func NewService(store Store, configs map[Category]Config, logger *slog.Logger) Service {
	return &service{
		store:   store,
		configs: configs,
		logger:  logger,
		now:     time.Now,
	}
}

// NewServiceWithClock is like [NewService] but with an injectable clock for tests.
func NewServiceWithClock(store Store, configs map[Category]Config, logger *slog.Logger, clock func() time.Time) Service {
	return &service{
		store:   store,
		configs: configs,
		logger:  logger,
		now:     clock,
	}
}

/*
Check applies the category budget to the identifier.

The count-and-record sequence is a single atomic store operation: two
concurrent checks on the same identifier can never both consume the last
slot of a budget.

Parameters:
  - ctx: Request context
  - identifier: User ID (authenticated) or client address (anonymous)
  - category: Route budget to apply

Returns:
  - Decision: Allowed, or Denied with a retry-after hint
  - error: apperr.ServiceUnavailable when the store is unreachable (fail closed)
*/
func (service *service) Check(ctx context.Context, identifier string, category Category) (Decision, error) {

	// Unknown categories fall back to the default budget.
	config, ok := service.configs[category]
	if !ok {
		config = service.configs[CategoryDefault]
	}

	now := service.now()

	allowed, oldest, err := service.store.CheckAndRecord(ctx, identifier, string(category), config.MaxRequests, config.Window, now)
	if err != nil {
		service.logger.Error("rate_limit_store_failed",
			slog.String("category", string(category)),
			slog.Any("error", err),
		)
		return Decision{}, apperr.ServiceUnavailable("Service temporarily unavailable")
	}

	if allowed {
		return Decision{Allowed: true}, nil
	}

	// The caller can retry once the oldest in-window event expires.
	retryAfter := config.Window - now.Sub(oldest)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}

	service.logger.Warn("rate_limit_denied",
		slog.String("category", string(category)),
		slog.Int("max_requests", config.MaxRequests),
		slog.Duration("retry_after", retryAfter),
	)

	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// RetryAfterSeconds converts a retry-after duration to whole seconds,
// rounding up so the client never retries too early.
func RetryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
