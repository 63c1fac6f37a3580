// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/huddle/internal/platform/constants"
)

// RedisRevocationStore implements [RevocationStore] using Redis keys that
// expire together with the credential they block.
type RedisRevocationStore struct {
	client redis.UniversalClient
	clock  func() time.Time
}

// NewRevocationStore creates a new Redis-backed RevocationStore.
func NewRevocationStore(client redis.UniversalClient) *RedisRevocationStore {
	return &RedisRevocationStore{client: client, clock: time.Now}
}

func revocationKey(tokenID string) string {
	return constants.RedisPrefixRevokedToken + tokenID
}

/*
Revoke marks tokenID as unusable until the given instant.

Parameters:
  - context: context.Context
  - tokenID: string (the credential's jti)
  - until: time.Time (the credential's own expiry)

Returns:
  - error: Execution errors
*/
func (store *RedisRevocationStore) Revoke(context context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(store.clock())
	if ttl <= 0 {
		return nil
	}

	if err := store.client.Set(context, revocationKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_revocation_set_failed: %w", err)
	}
	return nil
}

// IsRevoked reports whether a live revocation entry exists for tokenID.
func (store *RedisRevocationStore) IsRevoked(context context.Context, tokenID string) (bool, error) {
	count, err := store.client.Exists(context, revocationKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_revocation_exists_failed: %w", err)
	}
	return count > 0, nil
}
