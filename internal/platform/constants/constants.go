// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Flood-guard capacities and sliding-window categories.
  - Security: Token issuer, session lifetimes and cookie configuration.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "sevasetu-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Flood Guard (in-process, per IP)

const (
	// FloodGuardRPS is the requests per second allowed per IP before any
	// category-level accounting happens.
	FloodGuardRPS = 100.0

	// FloodGuardBurst is the maximum burst allowed for the flood guard.
	FloodGuardBurst = 150

	// FloodGuardCleanupInterval is how often idle IP entries are removed from memory.
	FloodGuardCleanupInterval = 1 * time.Minute

	// FloodGuardClientTTL is how long a client must be idle before its entry is deleted.
	FloodGuardClientTTL = 3 * time.Minute
)

// # Session Lifetimes

const (
	// SessionIdleTimeout invalidates a session that has seen no activity.
	SessionIdleTimeout = 30 * time.Minute

	// SessionAbsoluteTimeout invalidates a session regardless of activity.
	SessionAbsoluteTimeout = 12 * time.Hour
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in signed tokens.
	AuthIssuer = "sevasetu.org"

	// AuthAudience is the standard 'aud' claim in signed tokens.
	AuthAudience = "sevasetu-api"

	// SessionCookieName is the name of the cookie that stores the session ID.
	SessionCookieName = "session_id"

	// RememberTokenCookieName is the name of the long-lived remember-me cookie.
	RememberTokenCookieName = "remember_token"

	// AuthCookiePath is the scoped path for authentication cookies.
	AuthCookiePath = "/api/v1/auth"
)

// # Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
	HeaderAuthorization = "Authorization"
)

// AuthSchemeBearer is the Authorization header scheme for access tokens.
const AuthSchemeBearer = "Bearer"

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers = "users"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixSession     = "auth:session:"
	RedisPrefixResetWindow = "auth:reset_window:"
	RedisPrefixRateLimit   = "ratelimit"
)
