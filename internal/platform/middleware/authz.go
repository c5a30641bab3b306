// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/constants"
	"github.com/sevasetu/api/internal/platform/ctxutil"
	"github.com/sevasetu/api/internal/platform/respond"
	"github.com/sevasetu/api/internal/platform/sec"
	"github.com/sevasetu/api/internal/ratelimit"
)

// # Identity Resolution

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(tokenString string, expectedType sec.TokenType) (*sec.AuthClaims, error)
}

// SessionResolver turns a session cookie value into an active identity.
//
// A (nil, nil) return means "no such session": the request proceeds anonymously.
type SessionResolver interface {
	ResolveIdentity(ctx context.Context, sessionID string) (*sec.Identity, error)
}

/*
Authenticate resolves the caller's identity and injects it into the context.

Description: Credentials are tried in a fixed order. A bearer token, when
present, is authoritative: a malformed or invalid one fails the request
immediately rather than silently downgrading to the session cookie. With no
Authorization header the session cookie is consulted; an absent or expired
session simply leaves the request anonymous, and the authorization
middlewares downstream decide whether anonymous is acceptable.

Parameters:
  - verifier: TokenVerifier (bearer access tokens)
  - resolver: SessionResolver (cookie sessions)

Returns:
  - func(http.Handler) http.Handler: Chainable middleware
*/
func Authenticate(verifier TokenVerifier, resolver SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Bearer token takes precedence when the header is present
			if header := request.Header.Get(constants.HeaderAuthorization); header != "" {
				tokenString, ok := strings.CutPrefix(header, constants.AuthSchemeBearer+" ")
				if !ok || tokenString == "" {
					respond.Error(writer, request, apperr.TokenInvalid())
					return
				}

				claims, err := verifier.Verify(tokenString, sec.TokenTypeAccess)
				if err != nil {
					respond.Error(writer, request, apperr.TokenInvalid())
					return
				}

				role, err := sec.ParseRole(claims.Role)
				if err != nil {
					respond.Error(writer, request, apperr.TokenInvalid())
					return
				}

				identity := &sec.Identity{
					UserID: claims.UserID,
					Role:   role,
				}
				ctx := ctxutil.WithIdentity(request.Context(), identity)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// 2. Fall back to the session cookie
			cookie, err := request.Cookie(constants.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(writer, request)
				return
			}

			identity, err := resolver.ResolveIdentity(request.Context(), cookie.Value)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// Dead session: proceed anonymously, let RequireAuth decide
			if identity == nil {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Authorization Gates

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

/*
RequireRole allows only callers whose role satisfies one of the required roles.

Description: Satisfaction is hierarchical, not literal: an admin passes a
moderator gate. Anonymous callers receive 401, authenticated callers with an
insufficient role receive 403.

Parameters:
  - required: ...sec.Role

Returns:
  - func(http.Handler) http.Handler: Chainable middleware
*/
func RequireRole(required ...sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !identity.Role.Satisfies(required...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient role"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

/*
RequirePermission allows only callers whose role carries the named permission.

Parameters:
  - permission: string (for example sec.PermMembersManage)

Returns:
  - func(http.Handler) http.Handler: Chainable middleware
*/
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if !identity.Role.HasPermission(permission) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// # Category Rate Limits

/*
Limit applies the sliding-window budget of the given category to each request.

Description: Authenticated callers are budgeted per user ID so one noisy user
cannot exhaust a shared NAT address; anonymous callers fall back to their IP.
Denials carry a Retry-After hint; a limiter backend failure rejects the
request rather than waving it through.

Parameters:
  - limiter: ratelimit.Service
  - category: ratelimit.Category

Returns:
  - func(http.Handler) http.Handler: Chainable middleware
*/
func Limit(limiter ratelimit.Service, category ratelimit.Category) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// Prefer the user identity over the network address
			identifier := RealIP(request)
			if identity := ctxutil.GetIdentity(request.Context()); identity != nil {
				identifier = identity.UserID
			}

			decision, err := limiter.Check(request.Context(), identifier, category)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			if !decision.Allowed {
				respond.Error(writer, request, apperr.RateLimited(
					ratelimit.RetryAfterSeconds(decision.RetryAfter),
				))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
