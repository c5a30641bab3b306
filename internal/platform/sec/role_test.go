// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package sec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestParseRole verifies the closed enumeration: known strings parse, anything
else fails loudly.
*/
func TestParseRole(t *testing.T) {
	for _, raw := range []string{"super_admin", "admin", "moderator", "member", "user"} {
		role, err := ParseRole(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Role(raw), role)
	}

	for _, raw := range []string{"", "root", "Admin", "superadmin", "guest"} {
		_, err := ParseRole(raw)
		assert.Error(t, err, raw)
	}
}

/*
TestRole_AtLeast verifies the strict total order of the hierarchy.
*/
func TestRole_AtLeast(t *testing.T) {
	assert.True(t, RoleSuperAdmin.AtLeast(RoleAdmin))
	assert.True(t, RoleAdmin.AtLeast(RoleModerator))
	assert.True(t, RoleModerator.AtLeast(RoleMember))
	assert.True(t, RoleMember.AtLeast(RoleUser))
	assert.True(t, RoleMember.AtLeast(RoleMember))

	assert.False(t, RoleUser.AtLeast(RoleMember))
	assert.False(t, RoleModerator.AtLeast(RoleAdmin))
	assert.False(t, RoleAdmin.AtLeast(RoleSuperAdmin))
}

/*
TestRole_Satisfies verifies requirement lists, including the hierarchy
fallback and the empty-requirement case.
*/
func TestRole_Satisfies(t *testing.T) {
	// Exact membership
	assert.True(t, RoleModerator.Satisfies(RoleModerator, RoleAdmin))

	// Hierarchy fallback: admin exceeds the lowest required rank
	assert.True(t, RoleAdmin.Satisfies(RoleModerator))

	// Below every requirement
	assert.False(t, RoleMember.Satisfies(RoleModerator, RoleAdmin))

	// Empty requirement admits any valid role
	assert.True(t, RoleUser.Satisfies())

	// Unknown role satisfies nothing, not even the empty requirement
	assert.False(t, Role("bogus").Satisfies())
	assert.False(t, Role("bogus").Satisfies(RoleUser))
}

/*
TestRole_HasPermission verifies the static grant table and the super-admin
wildcard.
*/
func TestRole_HasPermission(t *testing.T) {
	testCases := []struct {
		name       string
		role       Role
		permission string
		expected   bool
	}{
		{name: "super admin passes any check", role: RoleSuperAdmin, permission: PermSettingsManage, expected: true},
		{name: "admin manages members", role: RoleAdmin, permission: PermMembersManage, expected: true},
		{name: "admin cannot restore members", role: RoleAdmin, permission: PermMembersRestore, expected: false},
		{name: "moderator reviews complaints", role: RoleModerator, permission: PermComplaintsReview, expected: true},
		{name: "moderator cannot manage members", role: RoleModerator, permission: PermMembersManage, expected: false},
		{name: "member has no grants", role: RoleMember, permission: PermDonationsView, expected: false},
		{name: "unknown role has no grants", role: Role("bogus"), permission: PermDonationsView, expected: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, testCase.role.HasPermission(testCase.permission))
		})
	}
}

/*
TestAuthorize verifies the combined role + permission decision.
*/
func TestAuthorize(t *testing.T) {
	assert.NoError(t, Authorize(RoleAdmin, []Role{RoleModerator}, PermMembersManage))
	assert.NoError(t, Authorize(RoleMember, nil, ""))

	assert.Error(t, Authorize(RoleMember, []Role{RoleAdmin}, ""))
	assert.Error(t, Authorize(RoleModerator, []Role{RoleModerator}, PermMembersManage))
}

/*
TestOwnsResource verifies the explicit ownership rule and the admin override.
*/
func TestOwnsResource(t *testing.T) {
	assert.True(t, OwnsResource("user-1", RoleMember, "user-1"))
	assert.False(t, OwnsResource("user-1", RoleMember, "user-2"))
	assert.False(t, OwnsResource("", RoleMember, ""))

	assert.True(t, OwnsResource("user-1", RoleAdmin, "user-2"))
	assert.True(t, OwnsResource("user-1", RoleSuperAdmin, "user-2"))
	assert.False(t, OwnsResource("user-1", RoleModerator, "user-2"))
}
