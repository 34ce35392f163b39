package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDenylist(t *testing.T) (*RedisDenylist, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisDenylistFromClient(client), mr
}

func TestRedisDenylist_RevokeAndCheck(t *testing.T) {
	d, _ := setupTestDenylist(t)
	ctx := context.Background()

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = d.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked, "Other tokens stay valid")
}

func TestRedisDenylist_EntryExpiresWithToken(t *testing.T) {
	d, mr := setupTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	assert.True(t, mr.Exists(keyPrefix+"jti-1"))

	mr.FastForward(2 * time.Minute)

	revoked, err := d.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "Entry should disappear once the token is expired anyway")
}

func TestRedisDenylist_IgnoresExpiredAndEmpty(t *testing.T) {
	d, mr := setupTestDenylist(t)
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	require.NoError(t, d.Revoke(ctx, "", time.Now().Add(time.Hour)))

	assert.Empty(t, mr.Keys())
}

func TestNewRedisDenylist_FromURL(t *testing.T) {
	mr := miniredis.RunT(t)

	d, err := NewRedisDenylist("redis://" + mr.Addr())
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Revoke(context.Background(), "abc", time.Now().Add(time.Hour)))
	assert.True(t, mr.Exists(keyPrefix+"abc"))
}

func TestNewRedisDenylist_BadURL(t *testing.T) {
	_, err := NewRedisDenylist("not a url")
	assert.Error(t, err)
}

func TestNoopDenylist(t *testing.T) {
	var d Denylist = NoopDenylist{}

	require.NoError(t, d.Revoke(context.Background(), "x", time.Now().Add(time.Hour)))
	revoked, err := d.IsRevoked(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, revoked)
}
