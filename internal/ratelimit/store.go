// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package ratelimit

import (
	"context"
	"time"
)

// # Storage Contract

// Store persists rate-limit events per (identifier, category).
//
// Implementations must make CheckAndRecord atomic with respect to concurrent
// calls for the same (identifier, category) pair.
type Store interface {
	/*
		CheckAndRecord counts events inside [now − window, now] and, only when
		the count is below max, records a new event at now.

		Returns:
		  - allowed: true if the event was recorded (count was below max)
		  - oldest: when denied, the oldest event still inside the window
		  - error: storage failure (the caller fails closed)
	*/
	CheckAndRecord(ctx context.Context, identifier string, category string, max int, window time.Duration, now time.Time) (allowed bool, oldest time.Time, err error)
}
