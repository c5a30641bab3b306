// Copyright (c) 2026 SevaSetu Foundation. All rights reserved.
// Author: platform@sevasetu.org

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevasetu/api/internal/platform/constants"
	"github.com/sevasetu/api/internal/platform/sec"
)

// # Session Repository

// Hash field names inside a session key.
const (
	sessionFieldUserID       = "userid"
	sessionFieldRole         = "role"
	sessionFieldCreatedAt    = "createdat"
	sessionFieldLastActivity = "lastactivity"
)

// userSessionsPrefix indexes live session IDs per user, for "logout everywhere".
const userSessionsPrefix = "auth:user_sessions:"

// RedisSessionRepository implements SessionRepository using Redis hashes.
//
// The session key TTL is the idle timeout: an idle-expired session physically
// disappears, so Find returning data already implies recent activity (modulo
// the explicit checks the service performs with its own clock).
type RedisSessionRepository struct {
	client *redis.Client
}

// NewSessionRepository creates a new Redis-backed SessionRepository.
func NewSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

/*
Create persists a session hash and indexes it under its user.

Parameters:
  - context: context.Context
  - session: *Session
  - idleTimeout: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Create(context context.Context, session *Session, idleTimeout time.Duration) error {
	key := sessionKey(session.ID)
	indexKey := userSessionsPrefix + session.UserID

	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.HSet(context, key,
			sessionFieldUserID, session.UserID,
			sessionFieldRole, string(session.Role),
			sessionFieldCreatedAt, session.CreatedAt.Format(time.RFC3339Nano),
			sessionFieldLastActivity, session.LastActivity.Format(time.RFC3339Nano),
		)
		pipe.Expire(context, key, idleTimeout)

		pipe.SAdd(context, indexKey, session.ID)
		// The index outlives any individual session by the absolute timeout.
		pipe.Expire(context, indexKey, constants.SessionAbsoluteTimeout)
		return nil
	})

	if err != nil {
		return fmt.Errorf("redis_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
Find returns the session with the given ID.

Description: Returns (nil, nil) when the key is absent, which covers both
never-existed and idle-expired sessions.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *Session: Hydrated entity, or nil
  - error: Execution or parsing errors
*/
func (repository *RedisSessionRepository) Find(context context.Context, sessionID string) (*Session, error) {
	values, err := repository.client.HGetAll(context, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis_session_repo_find_failed: %w", err)
	}

	// HGetAll returns an empty map (not redis.Nil) for a missing key.
	if len(values) == 0 {
		return nil, nil
	}

	createdAt, err := time.Parse(time.RFC3339Nano, values[sessionFieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("redis_session_repo_parse_createdat_failed: %w", err)
	}

	lastActivity, err := time.Parse(time.RFC3339Nano, values[sessionFieldLastActivity])
	if err != nil {
		return nil, fmt.Errorf("redis_session_repo_parse_lastactivity_failed: %w", err)
	}

	role, err := sec.ParseRole(values[sessionFieldRole])
	if err != nil {
		return nil, fmt.Errorf("redis_session_repo_parse_role_failed: %w", err)
	}

	return &Session{
		ID:           sessionID,
		UserID:       values[sessionFieldUserID],
		Role:         role,
		CreatedAt:    createdAt,
		LastActivity: lastActivity,
	}, nil
}

/*
Touch updates last-activity and renews the idle TTL.

Parameters:
  - context: context.Context
  - sessionID: string
  - at: time.Time
  - idleTimeout: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Touch(context context.Context, sessionID string, at time.Time, idleTimeout time.Duration) error {
	key := sessionKey(sessionID)

	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.HSet(context, key, sessionFieldLastActivity, at.Format(time.RFC3339Nano))
		pipe.Expire(context, key, idleTimeout)
		return nil
	})

	if err != nil {
		return fmt.Errorf("redis_session_repo_touch_failed: %w", err)
	}

	return nil
}

/*
Delete destroys a single session. Idempotent.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Delete(context context.Context, sessionID string) error {
	key := sessionKey(sessionID)

	// Remove the session from its user index first (best effort).
	if userID, err := repository.client.HGet(context, key, sessionFieldUserID).Result(); err == nil {
		_ = repository.client.SRem(context, userSessionsPrefix+userID, sessionID).Err()
	}

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_session_repo_delete_failed: %w", err)
	}

	return nil
}

/*
DeleteAllForUser destroys every live session belonging to the user.

Description: Security cleanup used by password reset and suspension. Stale
index members (sessions already idle-expired) are harmless: deleting a
missing key is a no-op.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) DeleteAllForUser(context context.Context, userID string) error {
	indexKey := userSessionsPrefix + userID

	sessionIDs, err := repository.client.SMembers(context, indexKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis_session_repo_delete_all_list_failed: %w", err)
	}

	keys := make([]string, 0, len(sessionIDs)+1)
	for _, id := range sessionIDs {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, indexKey)

	if err := repository.client.Del(context, keys...).Err(); err != nil {
		return fmt.Errorf("redis_session_repo_delete_all_failed: %w", err)
	}

	return nil
}

// sessionKey builds the Redis key for one session.
func sessionKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}

// # Reset Window Repository

// RedisResetWindowRepository implements ResetWindowRepository using Redis.
//
// Only the hash of the window token is used as the key, so a Redis dump never
// contains a redeemable token.
type RedisResetWindowRepository struct {
	client *redis.Client
}

// NewResetWindowRepository creates a new Redis-backed ResetWindowRepository.
func NewResetWindowRepository(client *redis.Client) *RedisResetWindowRepository {
	return &RedisResetWindowRepository{client: client}
}

/*
Open stores the window token for the user with the given TTL.

Parameters:
  - context: context.Context
  - token: string
  - userID: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisResetWindowRepository) Open(context context.Context, token string, userID string, ttl time.Duration) error {
	key := constants.RedisPrefixResetWindow + sec.HashToken(token)

	if err := repository.client.Set(context, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redis_reset_window_open_failed: %w", err)
	}

	return nil
}

/*
Redeem retrieves and deletes the window in one atomic GETDEL.

Description: Atomicity here is what makes "exactly one password change per
verified code" hold: two concurrent redeems resolve to one winner.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: UserID, or "" when the window is absent or expired
  - error: Execution errors
*/
func (repository *RedisResetWindowRepository) Redeem(context context.Context, token string) (string, error) {
	key := constants.RedisPrefixResetWindow + sec.HashToken(token)

	userID, err := repository.client.GetDel(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis_reset_window_redeem_failed: %w", err)
	}

	return userID, nil
}

var (
	_ SessionRepository     = (*RedisSessionRepository)(nil)
	_ ResetWindowRepository = (*RedisResetWindowRepository)(nil)
)
