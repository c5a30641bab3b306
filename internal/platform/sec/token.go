// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

// Package sec provides cryptographic primitives, token management and the
// role/permission model.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing,
// Authorization decisions) from the domain logic. It acts as an Infrastructure
// service injected into the Application layer via small interfaces.
package sec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes short-lived access tokens from long-lived refresh tokens.
//
// A refresh token must never be accepted where an access token is expected,
// and vice versa; [TokenService.Verify] enforces this via the 'typ' claim.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// ErrTokenInvalid is the single error returned for every verification failure.
//
// Malformed structure, signature mismatch, expiry, wrong issuer/audience and
// type confusion all collapse into this one value so that callers cannot build
// an oracle out of the distinction.
var ErrTokenInvalid = errors.New("sec: invalid token")

// AuthClaims represents the payload embedded inside a signed bearer token.
//
// # Why custom claims?
//
// By embedding the UserID and Role directly inside the token, the request gate
// can reconstruct the active identity WITHOUT querying the database on every
// single API request. This provides massive read-scalability.
type AuthClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the token payload small.
	UserID    string `json:"uid"`
	Role      string `json:"rol"`
	TokenType string `json:"typ"`
}

// TokenService signs and verifies compact bearer tokens using HMAC-SHA256.
//
// Tokens are three base64url segments (header.payload.signature); the
// signature is computed over header.payload with a server-held shared secret.
// There is no revocation list: revocation relies on short TTLs plus session
// and remember-token invalidation at the session-manager layer. Rotating the
// secret invalidates every outstanding token.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewTokenService creates a TokenService around the process-wide signing secret.
func NewTokenService(secret, issuer, audience string) *TokenService {
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
}

// Issue creates a signed token of the given type for a user.
//
// # Parameters
//   - userID: The ID of the account.
//   - role: The role of the account, snapshotted into the claims.
//   - tokenType: TokenTypeAccess or TokenTypeRefresh.
//   - timeToLive: The duration before the token expires.
//
// # Returns
//   - A signed compact token string, or an error if signing fails.
func (service *TokenService) Issue(userID, role string, tokenType TokenType, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			Audience:  jwt.ClaimStrings{service.audience},
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:    userID,
		Role:      role,
		TokenType: string(tokenType),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", errors.Join(errors.New("sec: failed to sign token"), err)
	}

	return signedToken, nil
}

// Verify checks the signature, expiry, issuer, audience and type of a token.
//
// Any failure — malformed structure, signature mismatch (compared in constant
// time by the HMAC verifier), expiry, or a token of the wrong type — returns
// [ErrTokenInvalid]. It never panics or leaks a raw parsing error.
func (service *TokenService) Verify(tokenString string, expectedType TokenType) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{},
		func(token *jwt.Token) (interface{}, error) {
			// Refuse any algorithm other than HMAC to block alg-substitution.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenInvalid
			}
			return service.secret, nil
		},
		jwt.WithIssuer(service.issuer),
		jwt.WithAudience(service.audience),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	// Type confusion check: a refresh token presented as an access token (or
	// the reverse) is rejected with the same generic error.
	if claims.TokenType != string(expectedType) {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// WithClock overrides the internal clock, used in tests.
func (service *TokenService) WithClock(clock func() time.Time) {
	if clock != nil {
		service.now = clock
	}
}

// # Identity

// Identity is the resolved caller of an authenticated request.
//
// It is produced by the request gate from either a verified bearer token or a
// live server-side session, and injected into the request context.
type Identity struct {
	UserID string
	Role   Role

	// SessionID is set when the identity was resolved from a session cookie.
	// Empty for pure bearer-token requests.
	SessionID string
}
