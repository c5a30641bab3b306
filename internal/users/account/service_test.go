// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package account

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/sec"
	"github.com/sevasetu/api/internal/users/auth"
	"github.com/sevasetu/api/pkg/pagination"
)

// # Test Fakes

type fakeAccountRepository struct {
	accounts map[string]*auth.User
	deleted  map[string]time.Time
}

func (repository *fakeAccountRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := repository.accounts[id]
	if !ok {
		return nil, apperr.NotFound("Member")
	}
	if _, gone := repository.deleted[id]; gone {
		return nil, apperr.NotFound("Member")
	}
	clone := *user
	return &clone, nil
}

func (repository *fakeAccountRepository) UpdateProfile(_ context.Context, user *auth.User) error {
	stored, ok := repository.accounts[user.ID]
	if ok {
		stored.DisplayName = user.DisplayName
	}
	return nil
}

func (repository *fakeAccountRepository) List(_ context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error) {
	matched := make([]*auth.User, 0, len(repository.accounts))
	for id, user := range repository.accounts {
		if _, gone := repository.deleted[id]; gone {
			continue
		}
		if filter.Status != "" && string(user.Status) != filter.Status {
			continue
		}
		if filter.Role != "" && string(user.Role) != filter.Role {
			continue
		}
		matched = append(matched, user)
	}

	total := len(matched)
	if params.Offset() >= total {
		return nil, total, nil
	}
	end := params.Offset() + params.Limit
	if end > total {
		end = total
	}
	return matched[params.Offset():end], total, nil
}

func (repository *fakeAccountRepository) SetStatus(_ context.Context, userID string, status auth.Status) error {
	if user, ok := repository.accounts[userID]; ok {
		user.Status = status
	}
	return nil
}

func (repository *fakeAccountRepository) SoftDelete(_ context.Context, userID string, at time.Time) error {
	if _, gone := repository.deleted[userID]; gone {
		return nil
	}
	if _, ok := repository.accounts[userID]; ok {
		repository.deleted[userID] = at
	}
	return nil
}

type fakeSessionRevoker struct {
	revoked []string
}

func (revoker *fakeSessionRevoker) DeleteAllForUser(_ context.Context, userID string) error {
	revoker.revoked = append(revoker.revoked, userID)
	return nil
}

func newAccountFixture(t *testing.T) (*Service, *fakeAccountRepository, *fakeSessionRevoker) {
	t.Helper()

	repository := &fakeAccountRepository{
		accounts: map[string]*auth.User{
			"member-1": {
				ID:          "member-1",
				Email:       "asha@example.org",
				Phone:       "9876543210",
				DisplayName: "Asha Rao",
				Role:        sec.RoleMember,
				Status:      auth.StatusActive,
			},
		},
		deleted: map[string]time.Time{},
	}
	revoker := &fakeSessionRevoker{}

	service := NewService(repository, revoker, slog.New(slog.DiscardHandler))
	return service, repository, revoker
}

// # Tests

func TestUpdateProfile_ContactChannelsImmutable(t *testing.T) {
	service, repository, _ := newAccountFixture(t)

	name := "Asha R."
	user, err := service.UpdateProfile(context.Background(), "member-1", UpdateProfileInput{
		DisplayName: &name,
	})
	require.NoError(t, err)

	assert.Equal(t, "Asha R.", user.DisplayName)
	assert.Equal(t, "Asha R.", repository.accounts["member-1"].DisplayName)
	// Contact channels pass through untouched.
	assert.Equal(t, "asha@example.org", repository.accounts["member-1"].Email)
	assert.Equal(t, "9876543210", repository.accounts["member-1"].Phone)
}

func TestDeleteAccount_RevokesAllSessions(t *testing.T) {
	service, repository, revoker := newAccountFixture(t)

	require.NoError(t, service.DeleteAccount(context.Background(), "member-1"))

	_, wasDeleted := repository.deleted["member-1"]
	assert.True(t, wasDeleted)
	assert.Equal(t, []string{"member-1"}, revoker.revoked)

	// Deleted accounts disappear from reads.
	_, err := service.GetProfile(context.Background(), "member-1")
	assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
}

func TestSuspend_SignsOutEverywhere(t *testing.T) {
	service, repository, revoker := newAccountFixture(t)

	require.NoError(t, service.Suspend(context.Background(), "member-1"))

	assert.Equal(t, auth.StatusSuspended, repository.accounts["member-1"].Status)
	assert.Equal(t, []string{"member-1"}, revoker.revoked)

	// Suspending twice is a conflict, not a silent no-op.
	err := service.Suspend(context.Background(), "member-1")
	assert.True(t, apperr.IsCode(err, "CONFLICT"))
}

func TestRestore_OnlySuspendedAccounts(t *testing.T) {
	service, repository, _ := newAccountFixture(t)

	// Active accounts cannot be "restored".
	err := service.Restore(context.Background(), "member-1")
	assert.True(t, apperr.IsCode(err, "CONFLICT"))

	require.NoError(t, service.Suspend(context.Background(), "member-1"))
	require.NoError(t, service.Restore(context.Background(), "member-1"))

	// Straight back to active; verification state is retained.
	assert.Equal(t, auth.StatusActive, repository.accounts["member-1"].Status)
}

func TestListMembers_PaginationMeta(t *testing.T) {
	service, repository, _ := newAccountFixture(t)

	for _, id := range []string{"member-2", "member-3", "member-4"} {
		repository.accounts[id] = &auth.User{ID: id, Role: sec.RoleUser, Status: auth.StatusActive}
	}

	members, meta, err := service.ListMembers(context.Background(), ListFilter{}, pagination.Params{Page: 1, Limit: 3})
	require.NoError(t, err)

	assert.Len(t, members, 3)
	assert.Equal(t, 4, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
}
