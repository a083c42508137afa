package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://"+mr.Addr(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestRedisStore_CheckAndSet(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	ctx := context.Background()

	first, err := store.CheckAndSet(ctx, "automation_platform:evt-1")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.CheckAndSet(ctx, "automation_platform:evt-1")
	require.NoError(t, err)
	assert.False(t, second)

	other, err := store.CheckAndSet(ctx, "automation_platform:evt-2")
	require.NoError(t, err)
	assert.True(t, other)
}

func TestRedisStore_KeyExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	first, err := store.CheckAndSet(ctx, "voice_post_call:conv-1")
	require.NoError(t, err)
	assert.True(t, first)

	mr.FastForward(2 * time.Minute)

	again, err := store.CheckAndSet(ctx, "voice_post_call:conv-1")
	require.NoError(t, err)
	assert.True(t, again, "key should be reusable after TTL expiry")
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore("not-a-url", time.Hour)
	assert.Error(t, err)
}
