// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

/*
Package account provides member profile management and administration.

It covers the self-service surface (view and edit your own profile, leave the
foundation) and the administrative surface (member directory, suspension and
restoration). The account entity itself is owned by the auth domain; this
package operates on it.
*/
package account

import (
	"context"
	"time"

	"github.com/sevasetu/api/internal/users/auth"
	"github.com/sevasetu/api/pkg/pagination"
)

// # Listing

// ListFilter narrows the administrative member directory.
type ListFilter struct {
	// Status filters by lifecycle state ("" = all).
	Status string
	// Role filters by authorization level ("" = all).
	Role string
	// Search matches against email, phone and display name ("" = all).
	Search string
}

// # Data Access

// AccountRepository defines the data access contract for member administration.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *auth.User: Hydrated entity
		  - error: Not found or execution failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		UpdateProfile persists the mutable profile fields of an account.

		Parameters:
		  - context: context.Context
		  - user: *auth.User

		Returns:
		  - error: Persistence failures
	*/
	UpdateProfile(context context.Context, user *auth.User) error

	/*
		List returns one page of the member directory plus the total count.

		Parameters:
		  - context: context.Context
		  - filter: ListFilter
		  - params: pagination.Params

		Returns:
		  - []*auth.User: Page of members
		  - int: Total matching members
		  - error: Execution failures
	*/
	List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error)

	/*
		SetStatus transitions the account's lifecycle state.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - status: auth.Status

		Returns:
		  - error: Persistence failures
	*/
	SetStatus(context context.Context, userID string, status auth.Status) error

	/*
		SoftDelete marks the account as deleted without removing the row.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - at: time.Time

		Returns:
		  - error: Persistence failures
	*/
	SoftDelete(context context.Context, userID string, at time.Time) error
}

// SessionRevoker terminates every live session of a member.
//
// Satisfied by the auth domain's session repository; declared here so this
// package does not depend on its concrete Redis implementation.
type SessionRevoker interface {
	DeleteAllForUser(context context.Context, userID string) error
}
