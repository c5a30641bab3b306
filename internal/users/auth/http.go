// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sevasetu/api/internal/notify"
	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/constants"
	"github.com/sevasetu/api/internal/platform/middleware"
	requestutil "github.com/sevasetu/api/internal/platform/request"
	"github.com/sevasetu/api/internal/platform/respond"
	"github.com/sevasetu/api/internal/platform/validate"
	"github.com/sevasetu/api/internal/ratelimit"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the member lifecycle entry points
// (Registration, Login, Verification, Password Recovery).
type Handler struct {
	authService *Service
	limiter     ratelimit.Service
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, limiter ratelimit.Service) *Handler {
	return &Handler{authService: service, limiter: limiter}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register        : Creates a new account.
//   - POST /login           : Authenticates and establishes a session.
//   - POST /login-otp/*     : Passwordless login via SMS code.
//   - POST /forgot-password : Password recovery flow.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints, budgeted by the auth category
	router.Group(func(r chi.Router) {
		r.Use(middleware.Limit(handler.limiter, ratelimit.CategoryAuth))

		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/refresh", handler.refresh)
		r.Post("/remember", handler.redeemRememberToken)
	})

	// Code-issuing endpoints share the tighter OTP budget
	router.Group(func(r chi.Router) {
		r.Use(middleware.Limit(handler.limiter, ratelimit.CategoryOtp))

		r.Post("/login-otp/request", handler.requestLoginCode)
		r.Post("/login-otp/verify", handler.loginWithCode)
		r.Post("/forgot-password", handler.forgotPassword)
		r.Post("/reset-password/verify", handler.verifyReset)
		r.Post("/reset-password", handler.resetPassword)
	})

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/change-password", handler.changePassword)

		r.Group(func(protected chi.Router) {
			protected.Use(middleware.Limit(handler.limiter, ratelimit.CategoryOtp))
			protected.Post("/otp/request", handler.requestVerification)
			protected.Post("/otp/verify", handler.verifyAccount)
		})
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Login      string `json:"login"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type otpChannelRequest struct {
	Channel string `json:"channel"`
}

type verifyAccountRequest struct {
	Channel string `json:"channel"`
	Code    string `json:"code"`
}

type loginCodeRequest struct {
	Login string `json:"login"`
}

type loginWithCodeRequest struct {
	Login      string `json:"login"`
	Code       string `json:"code"`
	RememberMe bool   `json:"remember_me"`
}

type forgotPasswordRequest struct {
	Login string `json:"login"`
}

type verifyResetRequest struct {
	Login string `json:"login"`
	Code  string `json:"code"`
}

type resetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// # Registration & Login

/*
Register handles the creation of a new member account.

POST /api/v1/auth/register

Description: Validates input (including password strength rules), checks for
identity conflicts, and persists a new pending account. A verification code
is dispatched to the registered email.

Request:
  - Body: registerRequest (Email, Phone, Password, DisplayName)

Response:
  - 201: User: Created member profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email or Phone already registered
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPhone, input.Phone).
		Mobile(FieldPhone, input.Phone).
		Required(FieldPassword, input.Password).
		Password(FieldPassword, input.Password).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, 100)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:       input.Email,
		Phone:       input.Phone,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a member and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, creates a fresh server-side session, and
injects the session cookie. With remember_me set, an additional long-lived
remember cookie is issued.

Request:
  - Body: loginRequest (Login, Password, RememberMe)

Response:
  - 200: Session: Access token, refresh token and member profile
  - 401: ErrInvalidCredentials: Unknown identity or wrong password
  - 403: ErrAccountNotActive: Pending or suspended account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Login:      input.Login,
		Password:   input.Password,
		RememberMe: input.RememberMe,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session)
}

/*
Logout terminates the current session.

POST /api/v1/auth/logout

Description: Idempotent — destroys the server-side session and the remember
token, then clears both cookies from the client.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	identity := requestutil.Identity(request)

	sessionID := ""
	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	userID := ""
	if identity != nil {
		userID = identity.UserID
		if identity.SessionID != "" {
			sessionID = identity.SessionID
		}
	}

	if err := handler.authService.Logout(request.Context(), sessionID, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearCookie(writer, constants.SessionCookieName, "/")
	clearCookie(writer, constants.RememberTokenCookieName, constants.AuthCookiePath)

	respond.NoContent(writer)
}

/*
Refresh issues a new access token from a valid refresh token.

POST /api/v1/auth/refresh

Description: Accepts the refresh token from the JSON body. The account's
current status is re-checked, so a suspension takes effect at the next
refresh at the latest.

Request:
  - Body: refreshRequest (RefreshToken)

Response:
  - 200: RefreshResponse: New access token credentials
  - 401: ErrTokenInvalid: Missing, malformed or expired refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.RefreshToken == "" {
		respond.Error(writer, request, apperr.TokenInvalid())
		return
	}

	accessToken, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken: accessToken,
		FieldTokenType:   constants.AuthSchemeBearer,
		FieldExpiresIn:   int64(handler.authService.accessTokenTTL / time.Second),
	})
}

/*
RedeemRememberToken silently re-authenticates from the remember-me cookie.

POST /api/v1/auth/remember

Description: Exchanges a live remember token for a brand-new session. The
token is single-use: a replacement is issued and set on the response, so a
stolen-then-replayed token dies on first legitimate use.

Response:
  - 200: Session: Fresh session and rotated remember token
  - 401: ErrUnauthorized: Missing, unknown or expired remember token
*/
func (handler *Handler) redeemRememberToken(writer http.ResponseWriter, request *http.Request) {
	cookie, err := request.Cookie(constants.RememberTokenCookieName)
	if err != nil || cookie.Value == "" {
		respond.Error(writer, request, apperr.Unauthorized("Missing remember token"))
		return
	}

	session, err := handler.authService.RedeemRememberToken(request.Context(), cookie.Value)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session)
}

// # Account Verification

/*
RequestVerification dispatches a fresh verification code to the caller.

POST /api/v1/auth/otp/request

Description: Issues a new code to the chosen channel (email or sms),
superseding any previously issued verification code.

Request:
  - Body: otpChannelRequest (Channel)

Response:
  - 200: Success: Code dispatched
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) requestVerification(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input otpChannelRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldChannel, input.Channel).
		OneOf(FieldChannel, input.Channel, "email", "sms")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestVerification(request.Context(), userID, channelFrom(input.Channel)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Verification code sent",
	})
}

/*
VerifyAccount confirms ownership of a contact channel.

POST /api/v1/auth/otp/verify

Description: Validates the submitted code and marks the channel as verified.
The first verified channel activates a pending account.

Request:
  - Body: verifyAccountRequest (Channel, Code)

Response:
  - 200: Success: Channel verified
  - 400: ErrOtpInvalid / ErrOtpExpired / ErrOtpAttemptsExceeded
*/
func (handler *Handler) verifyAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input verifyAccountRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldChannel, input.Channel).
		OneOf(FieldChannel, input.Channel, "email", "sms").
		Required(FieldCode, input.Code)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.VerifyAccount(request.Context(), userID, channelFrom(input.Channel), input.Code); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Account verified successfully",
	})
}

// # Passwordless Login

/*
RequestLoginCode dispatches a one-time login code via SMS.

POST /api/v1/auth/login-otp/request

Description: Always answers with the same generic message, whether or not
the login matches an account, to prevent member enumeration.

Request:
  - Body: loginCodeRequest (Login)

Response:
  - 200: Success: Generic acknowledgement
*/
func (handler *Handler) requestLoginCode(writer http.ResponseWriter, request *http.Request) {
	var input loginCodeRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Login == "" {
		respond.Error(writer, request, validate.RequiredError(FieldLogin, "This field is required"))
		return
	}

	if err := handler.authService.RequestLoginCode(request.Context(), input.Login); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this account exists, a login code has been sent.",
	})
}

/*
LoginWithCode completes a passwordless login.

POST /api/v1/auth/login-otp/verify

Request:
  - Body: loginWithCodeRequest (Login, Code, RememberMe)

Response:
  - 200: Session: Access token, refresh token and member profile
  - 400: ErrOtpInvalid / ErrOtpExpired / ErrOtpAttemptsExceeded
  - 401: ErrInvalidCredentials: Unknown identity
*/
func (handler *Handler) loginWithCode(writer http.ResponseWriter, request *http.Request) {
	var input loginWithCodeRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login)
	validator.Required(FieldCode, input.Code)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.LoginWithCode(request.Context(), input.Login, input.Code, input.RememberMe)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.writeSession(writer, session)
}

// # Password Recovery

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgot-password

Description: Dispatches a reset code to the account's email if it exists.
Always answers with the same generic message to prevent enumeration.

Request:
  - Body: forgotPasswordRequest (Login)

Response:
  - 200: Success: Generic acknowledgement
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Login == "" {
		respond.Error(writer, request, validate.RequiredError(FieldLogin, "This field is required"))
		return
	}

	if err := handler.authService.ForgotPassword(request.Context(), input.Login); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "If this account exists, a reset code has been sent.",
	})
}

/*
VerifyReset exchanges a valid reset code for a short-lived reset token.

POST /api/v1/auth/reset-password/verify

Description: The returned token opens a single-use window during which the
password may be changed — possibly from a different device than the one
that received the code.

Request:
  - Body: verifyResetRequest (Login, Code)

Response:
  - 200: ResetWindow: Opaque reset token
  - 400: ErrOtpInvalid / ErrOtpExpired / ErrOtpAttemptsExceeded
*/
func (handler *Handler) verifyReset(writer http.ResponseWriter, request *http.Request) {
	var input verifyResetRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldLogin, input.Login)
	validator.Required(FieldCode, input.Code)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	windowToken, err := handler.authService.VerifyReset(request.Context(), input.Login, input.Code)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldResetToken: windowToken,
	})
}

/*
ResetPassword completes the password recovery flow.

POST /api/v1/auth/reset-password

Description: Redeems the single-use reset token and applies the new
password. Every session and remember token of the account is destroyed.

Request:
  - Body: resetPasswordRequest (ResetToken, NewPassword)

Response:
  - 200: Success: Password updated
  - 400: ErrValidation: Weak password
  - 401: ErrUnauthorized: Invalid or expired reset token
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldResetToken, input.ResetToken).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.ResetToken, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password updated successfully",
	})
}

/*
ChangePassword updates the authenticated member's password.

POST /api/v1/auth/change-password

Description: Verifies the current password before applying the new one.
All other sessions are terminated; the calling session survives.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: ErrUnauthorized: Wrong current password or not authenticated
  - 400: ErrValidation: Weak password
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		Password(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		identity.UserID,
		identity.SessionID,
		input.CurrentPassword,
		input.NewPassword,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password changed successfully",
	})
}

// # Transport Helpers

// writeSession sets the session (and optional remember) cookies and writes
// the standard session payload.
func (handler *Handler) writeSession(writer http.ResponseWriter, session *LoginSession) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    session.SessionID,
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	if session.RememberToken != "" {
		http.SetCookie(writer, &http.Cookie{
			Name:     constants.RememberTokenCookieName,
			Value:    session.RememberToken,
			Path:     constants.AuthCookiePath,
			Expires:  session.RememberTokenExpires,
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldTokenType:    constants.AuthSchemeBearer,
		FieldExpiresIn:    int64(session.AccessTokenExpiresIn / time.Second),
		FieldUser:         session.User,
	})
}

// clearCookie expires a cookie on the client.
func clearCookie(writer http.ResponseWriter, name, path string) {
	http.SetCookie(writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// channelFrom maps a validated payload value to its delivery channel.
func channelFrom(value string) notify.Channel {
	if value == "sms" {
		return notify.ChannelSms
	}
	return notify.ChannelEmail
}
