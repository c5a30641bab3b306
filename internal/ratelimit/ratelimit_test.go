// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package ratelimit_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/ratelimit"
)

// testClock is a manually advanced clock shared by the service under test.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestService wires a limiter against an in-process Redis.
func newTestService(t *testing.T, configs map[ratelimit.Category]ratelimit.Config) (ratelimit.Service, *miniredis.Miniredis, *testClock) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &testClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.DiscardHandler)

	service := ratelimit.NewServiceWithClock(ratelimit.NewRedisStore(client), configs, logger, clock.Now)
	return service, server, clock
}

/*
TestCheck_WindowBoundary verifies the budget boundary: with (max=3, window=60s)
the first three checks pass, the fourth is denied, and a check after the
window has fully elapsed passes again.
*/
func TestCheck_WindowBoundary(t *testing.T) {
	configs := map[ratelimit.Category]ratelimit.Config{
		ratelimit.CategoryAuth: {MaxRequests: 3, Window: 60 * time.Second},
	}
	service, _, clock := newTestService(t, configs)
	ctx := context.Background()

	// 1st-3rd check: allowed
	for i := 0; i < 3; i++ {
		decision, err := service.Check(ctx, "203.0.113.7", ratelimit.CategoryAuth)
		require.NoError(t, err)
		assert.True(t, decision.Allowed, "check %d should be allowed", i+1)

		clock.Advance(1 * time.Second)
	}

	// 4th check inside the window: denied
	decision, err := service.Check(ctx, "203.0.113.7", ratelimit.CategoryAuth)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Greater(t, decision.RetryAfter, time.Duration(0))

	// Retry-after points at the oldest event falling out of the window:
	// first event was 3s ago, so roughly window - 3s remains.
	assert.InDelta(t, (57 * time.Second).Seconds(), decision.RetryAfter.Seconds(), 1.0)

	// After the window fully elapses: allowed again
	clock.Advance(61 * time.Second)

	decision, err = service.Check(ctx, "203.0.113.7", ratelimit.CategoryAuth)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

/*
TestCheck_DenialRecordsNoEvent verifies that denied checks do not consume
budget: hammering a denied identifier must not push recovery further away.
*/
func TestCheck_DenialRecordsNoEvent(t *testing.T) {
	configs := map[ratelimit.Category]ratelimit.Config{
		ratelimit.CategoryOtp: {MaxRequests: 2, Window: 30 * time.Second},
	}
	service, _, clock := newTestService(t, configs)
	ctx := context.Background()

	// Exhaust the budget.
	for i := 0; i < 2; i++ {
		decision, err := service.Check(ctx, "user-1", ratelimit.CategoryOtp)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	// Hammer while denied.
	for i := 0; i < 10; i++ {
		clock.Advance(1 * time.Second)
		decision, err := service.Check(ctx, "user-1", ratelimit.CategoryOtp)
		require.NoError(t, err)
		require.False(t, decision.Allowed)
	}

	// 10s of denied attempts + 21s wait clears the original 30s window.
	clock.Advance(21 * time.Second)

	decision, err := service.Check(ctx, "user-1", ratelimit.CategoryOtp)
	require.NoError(t, err)
	assert.True(t, decision.Allowed, "denied attempts must not extend the window")
}

/*
TestCheck_IdentifiersAreIsolated verifies that budgets are tracked per
identifier within a category.
*/
func TestCheck_IdentifiersAreIsolated(t *testing.T) {
	configs := map[ratelimit.Category]ratelimit.Config{
		ratelimit.CategoryAuth: {MaxRequests: 1, Window: 60 * time.Second},
	}
	service, _, _ := newTestService(t, configs)
	ctx := context.Background()

	decision, err := service.Check(ctx, "user-a", ratelimit.CategoryAuth)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	// user-a is now at budget, user-b is untouched.
	decision, err = service.Check(ctx, "user-a", ratelimit.CategoryAuth)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)

	decision, err = service.Check(ctx, "user-b", ratelimit.CategoryAuth)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

/*
TestCheck_UnknownCategoryFallsBack verifies that an unconfigured category
uses the default budget instead of being unlimited.
*/
func TestCheck_UnknownCategoryFallsBack(t *testing.T) {
	configs := map[ratelimit.Category]ratelimit.Config{
		ratelimit.CategoryDefault: {MaxRequests: 1, Window: 60 * time.Second},
	}
	service, _, _ := newTestService(t, configs)
	ctx := context.Background()

	decision, err := service.Check(ctx, "user-1", ratelimit.Category("nonexistent"))
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	decision, err = service.Check(ctx, "user-1", ratelimit.Category("nonexistent"))
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

/*
TestCheck_StorageFailureFailsClosed verifies that an unreachable store denies
the request with SERVICE_UNAVAILABLE instead of letting it through.
*/
func TestCheck_StorageFailureFailsClosed(t *testing.T) {
	service, server, _ := newTestService(t, ratelimit.DefaultConfigs())
	ctx := context.Background()

	server.Close()

	decision, err := service.Check(ctx, "user-1", ratelimit.CategoryAuth)
	require.Error(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, apperr.IsCode(err, "SERVICE_UNAVAILABLE"))
}

/*
TestRetryAfterSeconds verifies rounding up to whole seconds.
*/
func TestRetryAfterSeconds(t *testing.T) {
	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(10*time.Millisecond))
	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(1*time.Second))
	assert.Equal(t, 2, ratelimit.RetryAfterSeconds(1*time.Second+time.Millisecond))
	assert.Equal(t, 60, ratelimit.RetryAfterSeconds(60*time.Second))
}
