package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids until the token would have expired on
// its own. Sessions are otherwise stateless.
type Denylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	Close() error
}

const keyPrefix = "revoked:"

// RedisDenylist stores one key per revoked jti with a TTL matching the
// token's remaining lifetime.
type RedisDenylist struct {
	client *redis.Client
}

func NewRedisDenylist(redisURL string) (*RedisDenylist, error) {
	client, err := NewRedisClient(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisDenylist{client: client}, nil
}

func NewRedisDenylistFromClient(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

// NewRedisClient parses redisURL and pings the server.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

func (d *RedisDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if jti == "" || ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, keyPrefix+jti, 1, ttl).Err()
}

func (d *RedisDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDenylist) Close() error {
	return d.client.Close()
}

// NoopDenylist is used when no Redis is configured; signout then only
// clears the cookie.
type NoopDenylist struct{}

func (NoopDenylist) Revoke(context.Context, string, time.Time) error { return nil }

func (NoopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

func (NoopDenylist) Close() error { return nil }
