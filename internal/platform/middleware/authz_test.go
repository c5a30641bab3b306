// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/constants"
	"github.com/sevasetu/api/internal/platform/ctxutil"
	"github.com/sevasetu/api/internal/platform/middleware"
	"github.com/sevasetu/api/internal/platform/sec"
	"github.com/sevasetu/api/internal/ratelimit"
)

// # Test Doubles

// stubResolver resolves a single known session ID to a fixed identity.
type stubResolver struct {
	sessionID string
	identity  *sec.Identity
	err       error
}

func (resolver *stubResolver) ResolveIdentity(_ context.Context, sessionID string) (*sec.Identity, error) {
	if resolver.err != nil {
		return nil, resolver.err
	}
	if sessionID == resolver.sessionID {
		return resolver.identity, nil
	}
	return nil, nil
}

// stubLimiter returns a canned rate-limit decision.
type stubLimiter struct {
	decision ratelimit.Decision
	err      error
}

func (limiter *stubLimiter) Check(_ context.Context, _ string, _ ratelimit.Category) (ratelimit.Decision, error) {
	return limiter.decision, limiter.err
}

// okHandler reports whether it was reached and echoes the resolved identity.
func okHandler(reached *bool, seen **sec.Identity) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*reached = true
		if seen != nil {
			*seen = ctxutil.GetIdentity(request.Context())
		}
		writer.WriteHeader(http.StatusOK)
	})
}

func newTokenService() *sec.TokenService {
	return sec.NewTokenService("test-secret-material", constants.AuthIssuer, constants.AuthAudience)
}

// # Authentication

/*
TestAuthenticate_Bearer checks that a valid bearer access token resolves to an
authenticated identity without touching the session store.
*/
func TestAuthenticate_Bearer(t *testing.T) {
	tokens := newTokenService()
	accessToken, err := tokens.Issue("user-1", string(sec.RoleAdmin), sec.TokenTypeAccess, time.Minute)
	require.NoError(t, err)

	var reached bool
	var seen *sec.Identity
	handler := middleware.Authenticate(tokens, &stubResolver{})(okHandler(&reached, &seen))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(constants.HeaderAuthorization, constants.AuthSchemeBearer+" "+accessToken)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.True(t, reached)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, sec.RoleAdmin, seen.Role)
}

/*
TestAuthenticate_BearerInvalid checks that a present-but-bad Authorization
header fails the request instead of downgrading to anonymous.
*/
func TestAuthenticate_BearerInvalid(t *testing.T) {
	tokens := newTokenService()

	var reached bool
	handler := middleware.Authenticate(tokens, &stubResolver{})(okHandler(&reached, nil))

	for _, header := range []string{
		"Bearer not.a.token",
		"Bearer ",
		"Basic dXNlcjpwYXNz",
	} {
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request.Header.Set(constants.HeaderAuthorization, header)
		recorder := httptest.NewRecorder()

		handler.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code, header)
		assert.False(t, reached, header)
	}
}

/*
TestAuthenticate_SessionCookie checks the cookie fallback: a live session
authenticates the request, an unknown one leaves it anonymous.
*/
func TestAuthenticate_SessionCookie(t *testing.T) {
	resolver := &stubResolver{
		sessionID: "sess-1",
		identity:  &sec.Identity{UserID: "user-2", Role: sec.RoleMember, SessionID: "sess-1"},
	}

	var reached bool
	var seen *sec.Identity
	handler := middleware.Authenticate(newTokenService(), resolver)(okHandler(&reached, &seen))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "sess-1"})
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.True(t, reached)
	require.NotNil(t, seen)
	assert.Equal(t, "user-2", seen.UserID)

	// Unknown session proceeds anonymously
	reached, seen = false, nil
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "sess-gone"})
	recorder = httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.True(t, reached)
	assert.Nil(t, seen)
}

// # Authorization

/*
TestRequireAuth checks the 401 boundary for anonymous callers.
*/
func TestRequireAuth(t *testing.T) {
	var reached bool
	handler := middleware.RequireAuth(okHandler(&reached, nil))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, reached)

	// Authenticated request passes through
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "user-1", Role: sec.RoleMember})
	recorder = httptest.NewRecorder()

	handler.ServeHTTP(recorder, request.WithContext(ctx))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, reached)
}

/*
TestRequireRole checks hierarchical role gating: a higher role passes a lower
gate, a lower role is rejected with 403.
*/
func TestRequireRole(t *testing.T) {
	testCases := []struct {
		name     string
		role     sec.Role
		required sec.Role
		expected int
	}{
		{name: "exact role passes", role: sec.RoleModerator, required: sec.RoleModerator, expected: http.StatusOK},
		{name: "higher role passes lower gate", role: sec.RoleAdmin, required: sec.RoleModerator, expected: http.StatusOK},
		{name: "lower role is rejected", role: sec.RoleMember, required: sec.RoleAdmin, expected: http.StatusForbidden},
		{name: "moderator is not admin", role: sec.RoleModerator, required: sec.RoleAdmin, expected: http.StatusForbidden},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var reached bool
			handler := middleware.RequireRole(testCase.required)(okHandler(&reached, nil))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "user-1", Role: testCase.role})
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request.WithContext(ctx))

			assert.Equal(t, testCase.expected, recorder.Code)
			assert.Equal(t, testCase.expected == http.StatusOK, reached)
		})
	}
}

/*
TestRequirePermission checks permission gating including the super-admin
wildcard and the anonymous 401 case.
*/
func TestRequirePermission(t *testing.T) {
	handlerFor := func(reached *bool) http.Handler {
		return middleware.RequirePermission(sec.PermMembersManage)(okHandler(reached, nil))
	}

	// Anonymous caller gets 401
	var reached bool
	recorder := httptest.NewRecorder()
	handlerFor(&reached).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Member lacks the permission
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "u", Role: sec.RoleMember})
	recorder = httptest.NewRecorder()
	handlerFor(&reached).ServeHTTP(recorder, request.WithContext(ctx))
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.False(t, reached)

	// Super admin passes via wildcard
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx = ctxutil.WithIdentity(request.Context(), &sec.Identity{UserID: "u", Role: sec.RoleSuperAdmin})
	recorder = httptest.NewRecorder()
	handlerFor(&reached).ServeHTTP(recorder, request.WithContext(ctx))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, reached)
}

// # Rate Limiting

/*
TestLimit_Denied checks that a denial produces 429 with a Retry-After header
rounded up to whole seconds.
*/
func TestLimit_Denied(t *testing.T) {
	limiter := &stubLimiter{
		decision: ratelimit.Decision{Allowed: false, RetryAfter: 42500 * time.Millisecond},
	}

	var reached bool
	handler := middleware.Limit(limiter, ratelimit.CategoryAuth)(okHandler(&reached, nil))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "43", recorder.Header().Get(constants.HeaderRetryAfter))
	assert.False(t, reached)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMITED", body[constants.FieldCode])
}

/*
TestLimit_Allowed checks the pass-through path.
*/
func TestLimit_Allowed(t *testing.T) {
	limiter := &stubLimiter{decision: ratelimit.Decision{Allowed: true}}

	var reached bool
	handler := middleware.Limit(limiter, ratelimit.CategoryApi)(okHandler(&reached, nil))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, reached)
}

/*
TestLimit_BackendFailure checks that a limiter backend error fails closed
with 503 rather than letting the request through.
*/
func TestLimit_BackendFailure(t *testing.T) {
	limiter := &stubLimiter{err: apperr.ServiceUnavailable("Rate limiter is unavailable")}

	var reached bool
	handler := middleware.Limit(limiter, ratelimit.CategoryAuth)(okHandler(&reached, nil))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.False(t, reached)
}
