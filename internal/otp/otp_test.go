// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package otp

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevasetu/api/internal/notify"
	"github.com/sevasetu/api/internal/platform/sec"
)

// fakeStore is an in-memory [Store] for service-level tests.
type fakeStore struct {
	codes map[string]*Code // keyed by ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{codes: map[string]*Code{}}
}

func (s *fakeStore) Replace(_ context.Context, code *Code) error {
	for id, existing := range s.codes {
		if existing.UserID == code.UserID && existing.Purpose == code.Purpose && !existing.Consumed {
			delete(s.codes, id)
		}
	}
	clone := *code
	s.codes[code.ID] = &clone
	return nil
}

func (s *fakeStore) FindPending(_ context.Context, userID string, purpose Purpose) (*Code, error) {
	var latest *Code
	for _, code := range s.codes {
		if code.UserID != userID || code.Purpose != purpose || code.Consumed {
			continue
		}
		if latest == nil || code.CreatedAt.After(latest.CreatedAt) {
			latest = code
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (s *fakeStore) Consume(_ context.Context, codeID string, now time.Time) (bool, error) {
	code, ok := s.codes[codeID]
	if !ok || code.Consumed || !code.ExpiresAt.After(now) {
		return false, nil
	}
	code.Consumed = true
	return true, nil
}

func (s *fakeStore) IncrementAttempts(_ context.Context, codeID string) (int, error) {
	code, ok := s.codes[codeID]
	if !ok {
		return 0, errors.New("code not found")
	}
	code.Attempts++
	return code.Attempts, nil
}

func (s *fakeStore) Delete(_ context.Context, codeID string) error {
	delete(s.codes, codeID)
	return nil
}

func (s *fakeStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, code := range s.codes {
		if code.ExpiresAt.Before(cutoff) {
			delete(s.codes, id)
			removed++
		}
	}
	return removed, nil
}

// capturingSender records delivered codes so tests can replay them.
type capturingSender struct {
	lastCode string
	fail     bool
}

func (s *capturingSender) SendCode(_ context.Context, _ notify.Channel, _ string, code string, _ string) error {
	if s.fail {
		return errors.New("smtp connection refused")
	}
	s.lastCode = code
	return nil
}

// newTestService wires a service against the fake store with a mutable clock.
func newTestService() (Service, *fakeStore, *capturingSender, *time.Time) {
	store := newFakeStore()
	sender := &capturingSender{}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	service := NewServiceWithClock(store, sender, slog.New(slog.DiscardHandler), func() time.Time { return now })
	return service, store, sender, &now
}

/*
TestRequest_GeneratesSixDigitCode verifies code shape and hashed persistence.
*/
func TestRequest_GeneratesSixDigitCode(t *testing.T) {
	service, store, sender, _ := newTestService()
	ctx := context.Background()

	err := service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210")
	require.NoError(t, err)

	// Delivered code: 6 digits, zero-padded
	require.Len(t, sender.lastCode, 6)
	for _, c := range sender.lastCode {
		assert.True(t, c >= '0' && c <= '9')
	}

	// Persisted code: hash only, never plaintext
	pending, err := store.FindPending(ctx, "user-1", PurposeVerification)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, sec.HashToken(sender.lastCode), pending.CodeHash)
	assert.NotEqual(t, sender.lastCode, pending.CodeHash)
}

/*
TestVerify_SingleUse verifies that a code can be consumed exactly once.
*/
func TestVerify_SingleUse(t *testing.T) {
	service, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	code := sender.lastCode

	result, err := service.Verify(ctx, "user-1", PurposeVerification, code)
	require.NoError(t, err)
	assert.Equal(t, ResultOk, result)

	// Replay of the same code must never succeed again.
	result, err = service.Verify(ctx, "user-1", PurposeVerification, code)
	require.NoError(t, err)
	assert.Equal(t, ResultInvalid, result)
}

/*
TestVerify_Supersession verifies that requesting a new code invalidates the
prior one even before its original expiry.
*/
func TestVerify_Supersession(t *testing.T) {
	service, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	firstCode := sender.lastCode

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	secondCode := sender.lastCode

	// The superseded code is dead.
	result, err := service.Verify(ctx, "user-1", PurposeVerification, firstCode)
	require.NoError(t, err)
	if firstCode != secondCode {
		assert.Equal(t, ResultInvalid, result)
	}

	// The current code still works.
	result, err = service.Verify(ctx, "user-1", PurposeVerification, secondCode)
	require.NoError(t, err)
	assert.Equal(t, ResultOk, result)
}

/*
TestVerify_PurposeIsolation verifies that a code never crosses purposes.
*/
func TestVerify_PurposeIsolation(t *testing.T) {
	service, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	code := sender.lastCode

	result, err := service.Verify(ctx, "user-1", PurposePasswordReset, code)
	require.NoError(t, err)
	assert.Equal(t, ResultInvalid, result)
}

/*
TestVerify_AttemptsCeiling verifies the 3-wrong-guesses bound: two wrong
guesses still leave the correct code usable, the third kills it.
*/
func TestVerify_AttemptsCeiling(t *testing.T) {
	service, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	correct := sender.lastCode

	wrong := "000000"
	if wrong == correct {
		wrong = "000001"
	}

	// Two wrong guesses: still recoverable
	for i := 0; i < 2; i++ {
		result, err := service.Verify(ctx, "user-1", PurposeVerification, wrong)
		require.NoError(t, err)
		assert.Equal(t, ResultInvalid, result)
	}

	// Correct code on the third attempt succeeds
	result, err := service.Verify(ctx, "user-1", PurposeVerification, correct)
	require.NoError(t, err)
	assert.Equal(t, ResultOk, result)
}

/*
TestVerify_AttemptsExceeded verifies that the guess reaching the ceiling and
every attempt after it (even with the correct code) are rejected.
*/
func TestVerify_AttemptsExceeded(t *testing.T) {
	service, _, sender, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	correct := sender.lastCode

	wrong := "000000"
	if wrong == correct {
		wrong = "000001"
	}

	for i := 0; i < 2; i++ {
		result, err := service.Verify(ctx, "user-1", PurposeVerification, wrong)
		require.NoError(t, err)
		require.Equal(t, ResultInvalid, result)
	}

	// Third wrong guess hits the ceiling.
	result, err := service.Verify(ctx, "user-1", PurposeVerification, wrong)
	require.NoError(t, err)
	assert.Equal(t, ResultAttemptsExceeded, result)

	// Even the correct code is now dead.
	result, err = service.Verify(ctx, "user-1", PurposeVerification, correct)
	require.NoError(t, err)
	assert.Equal(t, ResultAttemptsExceeded, result)
}

/*
TestVerify_Expiry verifies TTL handling around the purpose window.
*/
func TestVerify_Expiry(t *testing.T) {
	service, _, sender, now := newTestService()
	ctx := context.Background()

	require.NoError(t, service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210"))
	code := sender.lastCode

	// 10 minute TTL for verification: one second past is expired.
	*now = now.Add(10*time.Minute + time.Second)

	result, err := service.Verify(ctx, "user-1", PurposeVerification, code)
	require.NoError(t, err)
	assert.Equal(t, ResultExpired, result)
}

/*
TestRequest_DeliveryFailureRollsBack verifies that a code which could not be
delivered is removed from storage.
*/
func TestRequest_DeliveryFailureRollsBack(t *testing.T) {
	service, store, sender, _ := newTestService()
	ctx := context.Background()

	sender.fail = true

	err := service.Request(ctx, "user-1", PurposeVerification, notify.ChannelSms, "9876543210")
	require.Error(t, err)

	pending, findErr := store.FindPending(ctx, "user-1", PurposeVerification)
	require.NoError(t, findErr)
	assert.Nil(t, pending, "undelivered code must not linger in storage")
}
