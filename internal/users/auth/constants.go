// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package auth

import "time"

// # Authentication Constraints

const (
	// RememberTokenTTL is the lifetime of a "remember me" token.
	// Long-lived (30 days) to provide a good user experience.
	RememberTokenTTL = 30 * 24 * time.Hour

	// RememberTokenLength is the byte length of the random remember token.
	RememberTokenLength = 32

	// ResetWindowTTL is how long a verified password-reset OTP keeps the
	// reset window open. Independent of the OTP's own TTL.
	ResetWindowTTL = 15 * time.Minute

	// ResetWindowTokenLength is the byte length of the opaque reset-window token.
	ResetWindowTokenLength = 32
)
