package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/models"
)

const profileKeyPrefix = "splitledger:profile:"

// Profile is the cached part of a user record.
type Profile struct {
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Name returns the display name, falling back to the email local-part.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return models.EmailLocalPart(p.Email)
}

// ProfileCache stores profiles by member ID.
type ProfileCache interface {
	// Get returns the cached profile; ok is false on a miss.
	Get(ctx context.Context, memberID string) (profile Profile, ok bool, err error)
	Set(ctx context.Context, memberID string, profile Profile) error
	Invalidate(ctx context.Context, memberID string) error
}

// RedisCache is a ProfileCache backed by Redis.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache returns a cache writing entries that expire after ttl.
// A zero ttl keeps entries until they are invalidated.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get retrieves the cached profile for memberID.
func (c *RedisCache) Get(ctx context.Context, memberID string) (Profile, bool, error) {
	val, err := c.client.Get(ctx, profileKeyPrefix+memberID).Bytes()
	if errors.Is(err, redis.Nil) {
		return Profile{}, false, nil
	}
	if err != nil {
		return Profile{}, false, fmt.Errorf("redis get: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(val, &profile); err != nil {
		return Profile{}, false, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return profile, true, nil
}

// Set stores profile for memberID.
func (c *RedisCache) Set(ctx context.Context, memberID string, profile Profile) error {
	val, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := c.client.Set(ctx, profileKeyPrefix+memberID, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Invalidate removes memberID's entry. Missing entries are not an error.
func (c *RedisCache) Invalidate(ctx context.Context, memberID string) error {
	if err := c.client.Del(ctx, profileKeyPrefix+memberID).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}
