// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/users/auth"
	"github.com/sevasetu/api/pkg/pagination"
)

// # Service Layer

// Service orchestrates business logic for member profiles and administration.
//
// It ensures that profile updates, suspension and restoration follow the
// established lifecycle constraints, and that security cleanup (session
// revocation) accompanies every punitive transition.
type Service struct {
	accountRepository AccountRepository
	sessionRevoker    SessionRevoker
	logger            *slog.Logger
	now               func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
func NewService(accountRepo AccountRepository, sessionRevoker SessionRevoker, logger *slog.Logger) *Service {
	return &Service{
		accountRepository: accountRepo,
		sessionRevoker:    sessionRevoker,
		logger:            logger,
		now:               time.Now,
	}
}

// # Profile Management

/*
GetProfile retrieves the full private identity of a member.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Hydrated member profile
  - error: Not found or execution failures
*/
func (service *Service) GetProfile(context context.Context, userID string) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}

// UpdateProfileInput defines the mutable subset of profile fields.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to a member's profile.

Description: Fetches the existing state, overrides the provided fields, and
synchronizes the change to persistent storage. Email and phone are NOT
mutable here: changing a contact channel would bypass verification.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated member profile
  - error: Update or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	// Apply delta updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}

	if err := service.accountRepository.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("member_profile_updated", slog.String("user_id", userID))

	return user, nil
}

/*
DeleteAccount performs an idempotent soft-deletion of a member account.

Description: Flags the account as deleted and immediately terminates all
active sessions to force a global sign-out. The row is retained for audit.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.accountRepository.SoftDelete(context, userID, service.now()); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	// Force global revocation of sessions for the deleted account
	_ = service.sessionRevoker.DeleteAllForUser(context, userID)

	service.logger.Warn("member_account_deleted", slog.String("user_id", userID))

	return nil
}

// # Member Administration

/*
ListMembers returns one page of the administrative member directory.

Parameters:
  - context: context.Context
  - filter: ListFilter
  - params: pagination.Params

Returns:
  - []*auth.User: Page of members
  - pagination.Meta: Navigation metadata
  - error: Execution failures
*/
func (service *Service) ListMembers(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, pagination.Meta, error) {
	members, total, err := service.accountRepository.List(context, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return members, pagination.NewMeta(params.Page, params.Limit, total), nil
}

/*
Suspend blocks a member account and revokes every live session.

Description: A suspended member is signed out everywhere immediately, not at
the next request: suspension without revocation would leave live sessions
usable until they expire.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Conflict (already suspended) or execution failures
*/
func (service *Service) Suspend(context context.Context, userID string) error {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if user.Status == auth.StatusSuspended {
		return apperr.Conflict("Account is already suspended")
	}

	if err := service.accountRepository.SetStatus(context, userID, auth.StatusSuspended); err != nil {
		return fmt.Errorf("account_service_suspend_failed: %w", err)
	}

	// Sign the member out everywhere, immediately.
	_ = service.sessionRevoker.DeleteAllForUser(context, userID)

	service.logger.Warn("member_suspended", slog.String("user_id", userID))

	return nil
}

/*
Restore reinstates a suspended member account.

Description: The account returns to 'active'; it does not pass through
'pending' again because its contact channels stay verified.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Conflict (not suspended) or execution failures
*/
func (service *Service) Restore(context context.Context, userID string) error {
	user, err := service.accountRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if user.Status != auth.StatusSuspended {
		return apperr.Conflict("Account is not suspended")
	}

	if err := service.accountRepository.SetStatus(context, userID, auth.StatusActive); err != nil {
		return fmt.Errorf("account_service_restore_failed: %w", err)
	}

	service.logger.Info("member_restored", slog.String("user_id", userID))

	return nil
}
