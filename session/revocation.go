package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore is the Redis deny-list for bearer tokens.
type RevocationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRevocationStore(rdb *redis.Client, ttl time.Duration) *RevocationStore {
	return &RevocationStore{rdb: rdb, ttl: ttl}
}

func key(jti string) string { return fmt.Sprintf("auth:revoked:%s", jti) }

// Revoke denies one token until it would have expired anyway.
func (s *RevocationStore) Revoke(ctx context.Context, c *Claims) error {
	ttl := s.ttl
	if c.ExpiresAt != nil {
		ttl = time.Until(c.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, key(c.ID), c.UserID, ttl).Err()
}

func (s *RevocationStore) IsRevoked(ctx context.Context, c *Claims) (bool, error) {
	n, err := s.rdb.Exists(ctx, key(c.ID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
