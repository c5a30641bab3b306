// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sevasetu/api/internal/notify"
	"github.com/sevasetu/api/internal/otp"
	"github.com/sevasetu/api/internal/platform/apperr"
	"github.com/sevasetu/api/internal/platform/constants"
	"github.com/sevasetu/api/internal/platform/sec"
	"github.com/sevasetu/api/pkg/uuid"
)

// # Service

// Service implements the authentication and session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, session,
// or login logic must be reviewed by the platform team.
type Service struct {
	userRepository        UserRepository
	sessionRepository     SessionRepository
	rememberRepository    RememberTokenRepository
	resetWindowRepository ResetWindowRepository
	otpService            otp.Service
	tokens                *sec.TokenService
	logger                *slog.Logger

	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration

	now func() time.Time
}

// NewService constructs a new [Service] with its dependencies.
//
// Token TTLs come from configuration so deployments can shorten them without
// a rebuild.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	rememberRepo RememberTokenRepository,
	resetWindowRepo ResetWindowRepository,
	otpService otp.Service,
	tokens *sec.TokenService,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository:        userRepo,
		sessionRepository:     sessionRepo,
		rememberRepository:    rememberRepo,
		resetWindowRepository: resetWindowRepo,
		otpService:            otpService,
		tokens:                tokens,
		logger:                logger,
		accessTokenTTL:        accessTokenTTL,
		refreshTokenTTL:       refreshTokenTTL,
		now:                   time.Now,
	}
}

// WithClock overrides the service clock, used in tests.
func (service *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		service.now = clock
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Phone       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member. The account starts in 'pending'
status and a verification code is dispatched to the email channel; login is
refused until a contact channel is verified.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify phone uniqueness. Return a client-safe Conflict error.
	_, err = service.userRepository.FindByPhone(context, input.Phone)
	if err == nil {
		return nil, apperr.Conflict("Phone number is already registered")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleUser,
		Status:       StatusPending,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	// Dispatch a verification code. Registration itself succeeds even if
	// delivery fails: the member can re-request from the verification screen.
	if err := service.otpService.Request(context, user.ID, otp.PurposeVerification, notify.ChannelEmail, user.Email); err != nil {
		service.logger.Warn("auth_service_verification_dispatch_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login      string // Can be Email or Phone
	Password   string
	RememberMe bool
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	SessionID            string
	AccessToken          string
	RefreshToken         string
	RememberToken        string // Empty unless RememberMe was requested.
	RememberTokenExpires time.Time
	AccessTokenExpiresIn time.Duration
	User                 *User
}

/*
Login validates user credentials and establishes a session.

Description: Verifies identity against the password hash (constant-time
comparison inside bcrypt), enforces account status gates, and creates a
brand-new session identifier — never reusing one supplied by the client
(fixation defense).

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: InvalidCredentials, AccountNotActive, or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	user, err := service.findByLogin(context, input.Login)
	if err != nil {
		if !isUnknownLogin(err) {
			return nil, apperr.ServiceUnavailable("Login is temporarily unavailable")
		}
		// Unknown login gets the same generic message as a wrong password.
		return nil, apperr.InvalidCredentials()
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.InvalidCredentials()
	}

	// Credentials are correct: only now reveal the status-specific reason.
	if err := service.statusGate(user); err != nil {
		return nil, err
	}

	return service.establishSession(context, user, input.RememberMe)
}

/*
Logout terminates the given session and discards the user's remember token.

Description: Idempotent — logging out an already-dead session succeeds, so a
client retrying over a flaky connection never sees an error.

Parameters:
  - context: context.Context
  - sessionID: string
  - userID: string

Returns:
  - error: Storage failures only
*/
func (service *Service) Logout(context context.Context, sessionID, userID string) error {
	if sessionID != "" {
		if err := service.sessionRepository.Delete(context, sessionID); err != nil {
			return fmt.Errorf("auth_service_logout_failed: %w", err)
		}
	}

	// "Remember me" dies with an explicit logout.
	if userID != "" {
		_ = service.rememberRepository.DeleteByUser(context, userID)
	}

	return nil
}

// # Session Resolution

/*
Resolve validates a session ID and records activity on it.

Description: Called by the request gate on every cookie-authenticated request.
Enforces both timeout bounds: idle (time since last activity) and absolute
(time since creation). An expired session is destroyed and the request is
treated as anonymous (nil, nil).

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *Session: Live session with refreshed activity, or nil for anonymous
  - error: Storage failures only
*/
func (service *Service) Resolve(context context.Context, sessionID string) (*Session, error) {
	session, err := service.sessionRepository.Find(context, sessionID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_resolve_failed: %w", err)
	}
	if session == nil {
		return nil, nil
	}

	now := service.now()

	// Idle timeout: the Redis TTL normally handles this, but the explicit
	// check keeps the invariant independent of storage behavior.
	if now.Sub(session.LastActivity) > constants.SessionIdleTimeout {
		_ = service.sessionRepository.Delete(context, sessionID)
		return nil, nil
	}

	// Absolute timeout: no amount of activity extends a session past this.
	if now.Sub(session.CreatedAt) > constants.SessionAbsoluteTimeout {
		_ = service.sessionRepository.Delete(context, sessionID)
		return nil, nil
	}

	// Touch: last-activity is monotonically non-decreasing.
	if err := service.sessionRepository.Touch(context, sessionID, now, constants.SessionIdleTimeout); err != nil {
		return nil, fmt.Errorf("auth_service_touch_failed: %w", err)
	}
	session.LastActivity = now

	return session, nil
}

/*
Refresh exchanges a valid refresh token for a fresh access token.

Description: Verifies the refresh token (type-checked: an access token is
never accepted here) and re-reads the user so a suspension that happened
after the token was issued still blocks the exchange.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - string: New access token
  - error: TokenInvalid, AccountNotActive, or storage failures
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (string, error) {
	claims, err := service.tokens.Verify(refreshToken, sec.TokenTypeRefresh)
	if err != nil {
		return "", apperr.TokenInvalid()
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return "", apperr.TokenInvalid()
	}

	if err := service.statusGate(user); err != nil {
		return "", err
	}

	accessToken, err := service.tokens.Issue(user.ID, string(user.Role), sec.TokenTypeAccess, service.accessTokenTTL)
	if err != nil {
		return "", fmt.Errorf("auth_service_refresh_issue_failed: %w", err)
	}

	return accessToken, nil
}

/*
ResolveIdentity adapts [Service.Resolve] for the request gate.

Description: Maps a live session to the [sec.Identity] the middleware injects
into the request context. Anonymous (dead or missing session) is (nil, nil).

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *sec.Identity: Resolved caller, or nil for anonymous
  - error: Storage failures only
*/
func (service *Service) ResolveIdentity(context context.Context, sessionID string) (*sec.Identity, error) {
	session, err := service.Resolve(context, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return &sec.Identity{
		UserID:    session.UserID,
		Role:      session.Role,
		SessionID: session.ID,
	}, nil
}

// # Remember Me

/*
RedeemRememberToken turns a long-lived remember token into a fresh session.

Description: The presented token is looked up by hash and rotated: a token is
valid for exactly one redemption, and redemption issues its replacement. A
stolen-then-used token therefore invalidates the legitimate copy, which
surfaces the theft at the next login.

Parameters:
  - context: context.Context
  - rememberToken: string

Returns:
  - *LoginSession: New session with a rotated remember token
  - error: Unauthorized, AccountNotActive, or storage failures
*/
func (service *Service) RedeemRememberToken(context context.Context, rememberToken string) (*LoginSession, error) {
	stored, err := service.rememberRepository.FindByHash(context, sec.HashToken(rememberToken))
	if err != nil {
		return nil, fmt.Errorf("auth_service_remember_lookup_failed: %w", err)
	}
	if stored == nil {
		return nil, apperr.Unauthorized("Invalid or expired remember token")
	}

	user, err := service.userRepository.FindByID(context, stored.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired remember token")
	}

	if err := service.statusGate(user); err != nil {
		return nil, err
	}

	// Rotation happens inside establishSession via Replace.
	return service.establishSession(context, user, true)
}

// # One-Time Code Flows

/*
RequestVerification dispatches a fresh account-verification code.

Parameters:
  - context: context.Context
  - userID: string
  - channel: notify.Channel (email or sms)

Returns:
  - error: Storage or delivery failures
*/
func (service *Service) RequestVerification(context context.Context, userID string, channel notify.Channel) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	return service.otpService.Request(context, user.ID, otp.PurposeVerification, channel, service.destination(user, channel))
}

/*
VerifyAccount consumes a verification code and activates the account.

Description: On success the channel's verified flag flips and a pending
account becomes active — the member can log in immediately afterwards.

Parameters:
  - context: context.Context
  - userID: string
  - channel: notify.Channel (which contact channel the code verified)
  - code: string

Returns:
  - error: OtpInvalid/OtpExpired/OtpAttemptsExceeded or storage failures
*/
func (service *Service) VerifyAccount(context context.Context, userID string, channel notify.Channel, code string) error {
	result, err := service.otpService.Verify(context, userID, otp.PurposeVerification, code)
	if err != nil {
		return apperr.ServiceUnavailable("Verification is temporarily unavailable")
	}
	if resultErr := mapOtpResult(result); resultErr != nil {
		return resultErr
	}

	if channel == notify.ChannelSms {
		err = service.userRepository.MarkPhoneVerified(context, userID)
	} else {
		err = service.userRepository.MarkEmailVerified(context, userID)
	}
	if err != nil {
		return fmt.Errorf("auth_service_mark_verified_failed: %w", err)
	}

	service.logger.Info("account_verified",
		slog.String("user_id", userID),
		slog.String("channel", string(channel)),
	)

	return nil
}

/*
RequestLoginCode dispatches a one-time login code to a member's phone.

Description: Passwordless login entry point. Responds identically whether or
not the login resolves to an account, to prevent enumeration.

Parameters:
  - context: context.Context
  - login: string (email or phone)

Returns:
  - error: Delivery failures only
*/
func (service *Service) RequestLoginCode(context context.Context, login string) error {
	user, err := service.findByLogin(context, login)
	if err != nil {
		if !isUnknownLogin(err) {
			return apperr.ServiceUnavailable("Login codes are temporarily unavailable")
		}
		// Silent: do not reveal whether the account exists.
		return nil
	}

	if err := service.statusGate(user); err != nil {
		return nil
	}

	return service.otpService.Request(context, user.ID, otp.PurposeLogin, notify.ChannelSms, user.Phone)
}

/*
LoginWithCode establishes a session from a one-time login code.

Parameters:
  - context: context.Context
  - login: string (email or phone)
  - code: string
  - rememberMe: bool

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: InvalidCredentials, OTP errors, or storage failures
*/
func (service *Service) LoginWithCode(context context.Context, login, code string, rememberMe bool) (*LoginSession, error) {
	user, err := service.findByLogin(context, login)
	if err != nil {
		if !isUnknownLogin(err) {
			return nil, apperr.ServiceUnavailable("Login is temporarily unavailable")
		}
		return nil, apperr.InvalidCredentials()
	}

	if err := service.statusGate(user); err != nil {
		return nil, err
	}

	result, err := service.otpService.Verify(context, user.ID, otp.PurposeLogin, code)
	if err != nil {
		return nil, apperr.ServiceUnavailable("Login is temporarily unavailable")
	}
	if resultErr := mapOtpResult(result); resultErr != nil {
		return nil, resultErr
	}

	return service.establishSession(context, user, rememberMe)
}

// # Password Recovery

/*
ForgotPassword dispatches a password-reset code.

Description: Responds identically whether or not the login resolves to an
account, to prevent enumeration.

Parameters:
  - context: context.Context
  - login: string (email or phone)

Returns:
  - error: Delivery failures only
*/
func (service *Service) ForgotPassword(context context.Context, login string) error {
	user, err := service.findByLogin(context, login)
	if err != nil {
		if !isUnknownLogin(err) {
			return apperr.ServiceUnavailable("Password reset is temporarily unavailable")
		}
		return nil
	}

	return service.otpService.Request(context, user.ID, otp.PurposePasswordReset, notify.ChannelEmail, user.Email)
}

/*
VerifyReset consumes a password-reset code and opens the reset window.

Description: The window has its own expiry, independent of the OTP's, and is
token-scoped: the returned opaque token is the only way in, so a different
device may complete the reset by presenting it.

Parameters:
  - context: context.Context
  - login: string (email or phone)
  - code: string

Returns:
  - string: Single-use reset-window token
  - error: OTP errors or storage failures
*/
func (service *Service) VerifyReset(context context.Context, login, code string) (string, error) {
	user, err := service.findByLogin(context, login)
	if err != nil {
		if !isUnknownLogin(err) {
			return "", apperr.ServiceUnavailable("Password reset is temporarily unavailable")
		}
		return "", apperr.OtpInvalid()
	}

	result, err := service.otpService.Verify(context, user.ID, otp.PurposePasswordReset, code)
	if err != nil {
		return "", apperr.ServiceUnavailable("Password reset is temporarily unavailable")
	}
	if resultErr := mapOtpResult(result); resultErr != nil {
		return "", resultErr
	}

	windowToken, err := sec.GenerateSecureToken(ResetWindowTokenLength)
	if err != nil {
		return "", fmt.Errorf("auth_service_reset_token_failed: %w", err)
	}

	if err := service.resetWindowRepository.Open(context, windowToken, user.ID, ResetWindowTTL); err != nil {
		return "", fmt.Errorf("auth_service_reset_window_failed: %w", err)
	}

	return windowToken, nil
}

/*
ResetPassword completes the forgot-password flow inside an open window.

Description: Redeems the window token (exactly one change per verified code),
replaces the password hash, and performs the security cleanup: every live
session and the remember token are destroyed so "logout everywhere" holds.

Parameters:
  - context: context.Context
  - windowToken: string
  - newPassword: string

Returns:
  - error: Unauthorized (window closed) or storage failures
*/
func (service *Service) ResetPassword(context context.Context, windowToken, newPassword string) error {
	userID, err := service.resetWindowRepository.Redeem(context, windowToken)
	if err != nil {
		return fmt.Errorf("auth_service_reset_redeem_failed: %w", err)
	}
	if userID == "" {
		return apperr.Unauthorized("Reset window is invalid or has expired")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_update_failed: %w", err)
	}

	// Security Cleanup: destroy every session and the remember token.
	_ = service.sessionRepository.DeleteAllForUser(context, userID)
	_ = service.rememberRepository.DeleteByUser(context, userID)

	service.logger.Info("password_reset_completed", slog.String("user_id", userID))

	return nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the current password, replaces the hash, and destroys
every OTHER session plus the remember token to force re-login on other devices.

Parameters:
  - context: context.Context
  - userID: string
  - currentSessionID: string (survives the rotation)
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentSessionID, currentPassword, newPassword string) error {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	// Destroy all sessions, then recreate activity on the current one by
	// leaving it out of the sweep: simplest is delete-all-and-respawn, but
	// keeping the current session avoids logging the caller out.
	_ = service.rememberRepository.DeleteByUser(context, userID)
	if err := service.deleteOtherSessions(context, userID, currentSessionID); err != nil {
		service.logger.Warn("auth_service_session_sweep_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	return nil
}

// # Internals

// establishSession creates a fresh session, issues the token pair and,
// when requested, rotates the remember token.
func (service *Service) establishSession(context context.Context, user *User, rememberMe bool) (*LoginSession, error) {
	now := service.now()

	// Fresh UUIDv7 per login: session IDs are never predictable or reused.
	session := &Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		Role:         user.Role,
		CreatedAt:    now,
		LastActivity: now,
	}

	if err := service.sessionRepository.Create(context, session, constants.SessionIdleTimeout); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	accessToken, err := service.tokens.Issue(user.ID, string(user.Role), sec.TokenTypeAccess, service.accessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.Issue(user.ID, string(user.Role), sec.TokenTypeRefresh, service.refreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	result := &LoginSession{
		SessionID:            session.ID,
		AccessToken:          accessToken,
		RefreshToken:         refreshToken,
		AccessTokenExpiresIn: service.accessTokenTTL,
		User:                 user,
	}

	if rememberMe {
		plaintext, err := sec.GenerateSecureToken(RememberTokenLength)
		if err != nil {
			return nil, fmt.Errorf("auth_service_remember_token_failed: %w", err)
		}

		expiresAt := now.Add(RememberTokenTTL)
		rememberToken := &RememberToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: sec.HashToken(plaintext),
			ExpiresAt: expiresAt,
			CreatedAt: now,
		}

		// Replace enforces at most one live token per user.
		if err := service.rememberRepository.Replace(context, rememberToken); err != nil {
			return nil, fmt.Errorf("auth_service_remember_persist_failed: %w", err)
		}

		result.RememberToken = plaintext
		result.RememberTokenExpires = expiresAt
	}

	if err := service.userRepository.RecordLogin(context, user.ID, now); err != nil {
		service.logger.Warn("auth_service_record_login_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	service.logger.Info("login_succeeded",
		slog.String("user_id", user.ID),
		slog.String("session_id", session.ID),
	)

	return result, nil
}

// findByLogin resolves an email-or-phone login string to an account.
//
// A NOT_FOUND error means the login matches no account; anything else is a
// storage failure and must not be disguised as a credentials problem.
func (service *Service) findByLogin(context context.Context, login string) (*User, error) {
	user, err := service.userRepository.FindByEmail(context, login)
	if err == nil {
		return user, nil
	}
	if !apperr.IsCode(err, "NOT_FOUND") {
		return nil, fmt.Errorf("auth_service_find_by_login_failed: %w", err)
	}

	user, err = service.userRepository.FindByPhone(context, login)
	if err == nil {
		return user, nil
	}
	if !apperr.IsCode(err, "NOT_FOUND") {
		return nil, fmt.Errorf("auth_service_find_by_login_failed: %w", err)
	}

	return nil, err
}

// isUnknownLogin reports whether a findByLogin failure means "no such account".
func isUnknownLogin(err error) bool {
	return apperr.IsCode(err, "NOT_FOUND")
}

// destination picks the contact address matching the delivery channel.
func (service *Service) destination(user *User, channel notify.Channel) string {
	if channel == notify.ChannelSms {
		return user.Phone
	}
	return user.Email
}

// statusGate maps a non-active account status to its client-facing error.
func (service *Service) statusGate(user *User) error {
	switch user.Status {
	case StatusActive:
		return nil
	case StatusPending:
		return apperr.AccountNotActive("Account is not verified yet")
	case StatusSuspended:
		return apperr.AccountNotActive("Account has been suspended")
	default:
		return apperr.AccountNotActive("Account is not available")
	}
}

// deleteOtherSessions removes all sessions for the user except the current one.
func (service *Service) deleteOtherSessions(context context.Context, userID, currentSessionID string) error {
	current, err := service.sessionRepository.Find(context, currentSessionID)
	if err != nil {
		return err
	}

	if err := service.sessionRepository.DeleteAllForUser(context, userID); err != nil {
		return err
	}

	// Respawn the caller's session so they stay logged in.
	if current != nil {
		return service.sessionRepository.Create(context, current, constants.SessionIdleTimeout)
	}
	return nil
}

// mapOtpResult converts a verification [otp.Result] to the error taxonomy.
func mapOtpResult(result otp.Result) error {
	switch result {
	case otp.ResultOk:
		return nil
	case otp.ResultExpired:
		return apperr.OtpExpired()
	case otp.ResultAttemptsExceeded:
		return apperr.OtpAttemptsExceeded()
	default:
		return apperr.OtpInvalid()
	}
}
