// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		FindByPhone returns the account with the given mobile number.

		Parameters:
		  - context: context.Context
		  - phone: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByPhone(context context.Context, phone string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		MarkEmailVerified flips the email verification flag and activates the
		account if it is still pending, in a single statement.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkEmailVerified(context context.Context, userID string) error

	/*
		MarkPhoneVerified flips the phone verification flag and activates the
		account if it is still pending, in a single statement.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	MarkPhoneVerified(context context.Context, userID string) error

	/*
		RecordLogin stamps the account's last successful login time.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - at: time.Time

		Returns:
		  - error: Persistence failures
	*/
	RecordLogin(context context.Context, userID string, at time.Time) error
}

// # Session Data Access

// SessionRepository defines the data access contract for server-side sessions.
//
// The production implementation lives in Redis: the key TTL doubles as the
// idle timeout, so an idle-expired session physically disappears.
type SessionRepository interface {

	/*
		Create persists a new session and indexes it under its user.

		Parameters:
		  - context: context.Context
		  - session: *Session
		  - idleTimeout: time.Duration (initial key TTL)

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session, idleTimeout time.Duration) error

	/*
		Find returns the session with the given ID, or nil when absent/expired.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *Session: Hydrated entity, or nil
		  - error: Retrieval failures
	*/
	Find(context context.Context, sessionID string) (*Session, error)

	/*
		Touch updates the session's last-activity time and renews its idle TTL.

		Parameters:
		  - context: context.Context
		  - sessionID: string
		  - at: time.Time
		  - idleTimeout: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Touch(context context.Context, sessionID string, at time.Time, idleTimeout time.Duration) error

	/*
		Delete destroys a single session. Deleting an absent session is not an error.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Delete(context context.Context, sessionID string) error

	/*
		DeleteAllForUser destroys every live session belonging to the user
		("logout everywhere").

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteAllForUser(context context.Context, userID string) error
}

// # Remember Token Data Access

// RememberTokenRepository defines the data access contract for "remember me" tokens.
type RememberTokenRepository interface {

	/*
		Replace deletes any existing token for token.UserID and inserts the new
		one, in a single transaction (at most one live token per user).

		Parameters:
		  - context: context.Context
		  - token: *RememberToken

		Returns:
		  - error: Persistence failures
	*/
	Replace(context context.Context, token *RememberToken) error

	/*
		FindByHash returns the unexpired token matching the given hash, or nil.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *RememberToken: Hydrated entity, or nil
		  - error: Retrieval failures
	*/
	FindByHash(context context.Context, tokenHash string) (*RememberToken, error)

	/*
		DeleteByUser removes the user's token (logout or credential rotation).

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	DeleteByUser(context context.Context, userID string) error

	/*
		DeleteExpired garbage-collects tokens past their expiry.

		Parameters:
		  - context: context.Context
		  - cutoff: time.Time

		Returns:
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context, cutoff time.Time) error
}

// # Reset Window Data Access

// ResetWindowRepository defines the contract for the short-lived window opened
// by a verified password-reset code.
//
// The window is token-scoped, not session-scoped: the opaque token returned to
// the verifying client is the only way in, so a different device can complete
// the reset by presenting it.
type ResetWindowRepository interface {

	/*
		Open stores the window token for the user with the given TTL.

		Parameters:
		  - context: context.Context
		  - token: string (opaque, stored hashed)
		  - userID: string
		  - ttl: time.Duration

		Returns:
		  - error: Persistence failures
	*/
	Open(context context.Context, token string, userID string, ttl time.Duration) error

	/*
		Redeem atomically retrieves AND deletes the window, so exactly one
		password change is accepted per verified code.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - string: UserID, or "" when the window is absent or expired
		  - error: Retrieval failures
	*/
	Redeem(context context.Context, token string) (string, error)
}
