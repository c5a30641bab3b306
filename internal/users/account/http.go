// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/middleware"
	requestutil "github.com/sevasetu/api/internal/platform/request"
	"github.com/sevasetu/api/internal/platform/respond"
	"github.com/sevasetu/api/internal/platform/sec"
	"github.com/sevasetu/api/internal/platform/validate"
	"github.com/sevasetu/api/pkg/pagination"
)

// Handler implements the HTTP layer for member profile management.
//
// # Security
//
// All endpoints in this package require an active authenticated identity
// provided by the request gate. The administrative subtree additionally
// requires member-management permissions.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the member domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth)

	// Self-service
	router.Get("/me", handler.getMe)
	router.Patch("/me", handler.updateMe)
	router.Delete("/me", handler.deleteMe)

	// Administration
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequirePermission(sec.PermMembersManage))
		admin.Get("/", handler.listMembers)
		admin.Get("/{id}", handler.getMember)
		admin.Post("/{id}/suspend", handler.suspendMember)
	})

	router.Group(func(restore chi.Router) {
		restore.Use(middleware.RequirePermission(sec.PermMembersRestore))
		restore.Post("/{id}/restore", handler.restoreMember)
	})

	return router
}

// # Self-Service Endpoints

/*
GET /api/v1/members/me.

Description: Retrieves the full private profile of the authenticated member.

Response:
  - 200: User: Fully hydrated member profile
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// updateMeRequest defines the expected JSON payload for profile updates.
type updateMeRequest struct {
	DisplayName *string `json:"display_name"`
}

/*
PATCH /api/v1/members/me.

Description: Applies partial updates to the authenticated member's profile.
Contact channels (email, phone) are immutable through this endpoint.

Request:
  - Body: updateMeRequest (Partial JSON)

Response:
  - 200: User: The updated profile
  - 400: ErrValidation: Invalid input data
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateMeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	v := &validate.Validator{}
	if input.DisplayName != nil {
		v.MinLen("display_name", *input.DisplayName, 2).MaxLen("display_name", *input.DisplayName, 100)
	}

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DELETE /api/v1/members/me.

Description: Performs a soft-deletion of the authenticated member's account
and signs the member out everywhere.

Response:
  - 204: No Content: Account deleted successfully
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administration Endpoints

/*
GET /api/v1/members.

Description: Paginated member directory for administrators. Supports
filtering by status, role and a free-text search term.

Request:
  - Query: page, limit, status, role, search

Response:
  - 200: []User + Meta: Page of members
  - 403: ErrForbidden: Missing members.manage permission
*/
func (handler *Handler) listMembers(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	filter := ListFilter{
		Status: request.URL.Query().Get("status"),
		Role:   request.URL.Query().Get("role"),
		Search: request.URL.Query().Get("search"),
	}

	members, meta, err := handler.accountService.ListMembers(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, members, meta)
}

/*
GET /api/v1/members/{id}.

Description: Retrieves a single member's profile for administrators.

Response:
  - 200: User: Member profile
  - 404: ErrNotFound: Unknown member
*/
func (handler *Handler) getMember(writer http.ResponseWriter, request *http.Request) {
	memberID := requestutil.Param(request, "id")
	if memberID == "" {
		respond.Error(writer, request, apperr.NotFound("Member"))
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), memberID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
POST /api/v1/members/{id}/suspend.

Description: Blocks the member and revokes every live session immediately.

Response:
  - 204: No Content: Member suspended
  - 409: ErrConflict: Already suspended
*/
func (handler *Handler) suspendMember(writer http.ResponseWriter, request *http.Request) {
	memberID := requestutil.Param(request, "id")
	if memberID == "" {
		respond.Error(writer, request, apperr.NotFound("Member"))
		return
	}

	if err := handler.accountService.Suspend(request.Context(), memberID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
POST /api/v1/members/{id}/restore.

Description: Reinstates a suspended member. Requires the members.restore
permission, which only the super-admin wildcard currently grants.

Response:
  - 204: No Content: Member restored
  - 409: ErrConflict: Member is not suspended
*/
func (handler *Handler) restoreMember(writer http.ResponseWriter, request *http.Request) {
	memberID := requestutil.Param(request, "id")
	if memberID == "" {
		respond.Error(writer, request, apperr.NotFound("Member"))
		return
	}

	if err := handler.accountService.Restore(request.Context(), memberID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
