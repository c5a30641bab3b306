// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package sec

import (
	"fmt"
)

// # User Roles

// Role represents the authorization level granted to an account.
//
// Roles form a strict total order. They are a closed enumeration: unknown
// strings fail at [ParseRole] time, never silently at authorization time.
type Role string

const (
	// Full platform control, satisfies every permission check
	RoleSuperAdmin Role = "super_admin"

	// Manages members, content and organizational settings
	RoleAdmin Role = "admin"

	// Can review complaints and moderate member submissions
	RoleModerator Role = "moderator"

	// Verified, dues-paying member of the foundation
	RoleMember Role = "member"

	// Default role for a freshly registered account
	RoleUser Role = "user"
)

// ParseRole converts a stored string into a [Role].
//
// An unknown value is a construction-time error, so a corrupted or
// hand-edited role column surfaces loudly instead of authorizing as nobody.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	if role.rank() == 0 {
		return "", fmt.Errorf("sec: unknown role %q", raw)
	}
	return role, nil
}

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r Role) AtLeast(target Role) bool {
	return r.rank() >= target.rank()
}

// Satisfies reports whether the role meets a requirement list.
//
// A role satisfies the requirement if it is one of the required roles, or if
// its rank meets or exceeds the lowest-ranked required role (hierarchy-based
// fallback). An empty requirement is satisfied by any valid role.
func (r Role) Satisfies(required ...Role) bool {
	if r.rank() == 0 {
		return false
	}
	if len(required) == 0 {
		return true
	}

	minimum := 0
	for _, target := range required {
		if r == target {
			return true
		}
		if minimum == 0 || target.rank() < minimum {
			minimum = target.rank()
		}
	}

	return r.rank() >= minimum
}

// rank maps a role to a numeric hierarchy level for comparison logic.
func (r Role) rank() int {

	// Linear scale (10-50) allows for future intermediate roles
	switch r {
	case RoleSuperAdmin:
		return 50
	case RoleAdmin:
		return 40
	case RoleModerator:
		return 30
	case RoleMember:
		return 20
	case RoleUser:
		return 10
	default:
		return 0
	}
}

// # Permissions

// PermissionWildcard satisfies every permission check.
const PermissionWildcard = "*"

// Permission identifiers used across the platform.
const (
	PermComplaintsReview = "complaints.review"
	PermDonationsView    = "donations.view"
	PermEventsManage     = "events.manage"
	PermGalleryManage    = "gallery.manage"
	PermNewsletterSend   = "newsletter.send"
	PermMembersManage    = "members.manage"
	PermMembersRestore   = "members.restore"
	PermSettingsManage   = "settings.manage"
)

// rolePermissions is the static role → permission-set table.
//
// Grants are not persisted separately; they derive entirely from the role.
var rolePermissions = map[Role]map[string]bool{
	RoleSuperAdmin: {PermissionWildcard: true},
	RoleAdmin: {
		PermComplaintsReview: true,
		PermDonationsView:    true,
		PermEventsManage:     true,
		PermGalleryManage:    true,
		PermNewsletterSend:   true,
		PermMembersManage:    true,
	},
	RoleModerator: {
		PermComplaintsReview: true,
		PermGalleryManage:    true,
	},
	RoleMember: {},
	RoleUser:   {},
}

// HasPermission reports whether the role's static set contains the permission.
func (r Role) HasPermission(permission string) bool {
	grants, ok := rolePermissions[r]
	if !ok {
		return false
	}
	return grants[PermissionWildcard] || grants[permission]
}

// # Authorization Decisions

// Authorize evaluates a role against a requirement list and an optional
// permission. It is pure: no I/O, fully unit-testable without storage.
//
// # Parameters
//   - role: The caller's role.
//   - required: Roles that satisfy the endpoint (empty = any authenticated role).
//   - permission: Additional permission the role's set must contain ("" = none).
//
// # Returns
//   - nil when access is allowed, an error describing the denial otherwise.
func Authorize(role Role, required []Role, permission string) error {
	if !role.Satisfies(required...) {
		return fmt.Errorf("sec: role %q does not satisfy requirement %v", role, required)
	}
	if permission != "" && !role.HasPermission(permission) {
		return fmt.Errorf("sec: role %q lacks permission %q", role, permission)
	}
	return nil
}

// OwnsResource reports whether the caller may act on a resource owned by
// resourceOwnerID.
//
// Ownership is an explicit, separate check — it is never implied by
// [Authorize]. Admins and super admins may act on any member's resources.
func OwnsResource(userID string, role Role, resourceOwnerID string) bool {
	if userID != "" && userID == resourceOwnerID {
		return true
	}
	return role == RoleAdmin || role == RoleSuperAdmin
}
