// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session, RememberToken) and logic
for authentication, verification, and the account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to member identity.
*/
package auth

import (
	"time"

	"github.com/sevasetu/api/internal/platform/sec"
)

// # Domain Entities

// Status is the lifecycle state of a member account.
//
// Accounts are never hard-deleted: suspension and the soft-delete timestamp
// are the only removal mechanisms.
type Status string

const (
	// StatusPending means the account exists but no contact channel has been
	// verified yet. Login is refused.
	StatusPending Status = "pending"
	// StatusActive means the account is in good standing.
	StatusActive Status = "active"
	// StatusSuspended means an admin has blocked the account.
	StatusSuspended Status = "suspended"
)

// User represents a registered member of the SevaSetu platform.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName   string    `json:"display_name"`
	Role          sec.Role  `json:"role"`
	Status        Status    `json:"status"`
	EmailVerified bool      `json:"email_verified"`
	PhoneVerified bool      `json:"phone_verified"`
	LastLoginAt   time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Session represents a live server-side session.
//
// The invariant `now − LastActivity ≤ idle timeout AND now − CreatedAt ≤
// absolute timeout` is checked on every resolution; a session violating
// either bound is destroyed and the request treated as anonymous.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Role         sec.Role  `json:"role"` // Role snapshot taken at login.
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// RememberToken is the persistent "remember me" credential.
//
// Only the SHA-256 hash of the opaque token is stored; at most one live token
// exists per user (issuing a new one replaces the old).
type RememberToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldLogin           = "login"
	FieldCode            = "code"
	FieldChannel         = "channel"
	FieldResetToken      = "reset_token"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldAccessToken     = "access_token"
	FieldRefreshToken    = "refresh_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldUser            = "user"
	FieldMessage         = "message"
)
