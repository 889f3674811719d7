package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mhmdnab/tolabi/internal/errors"
	"github.com/mhmdnab/tolabi/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestSessionStorage_StoreAndLoad(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStorage(client)
	ctx := context.Background()

	value := []byte(`{"identity":"super","role":"superadmin","token":"t1"}`)
	require.NoError(t, store.Store(ctx, "slot-1", value, time.Hour))

	got, err := store.Load(ctx, "slot-1")
	require.NoError(t, err)
	assert.JSONEq(t, string(value), string(got))

	ttl := client.TTL(ctx, DefaultPrefix+"slot-1").Val()
	assert.Greater(t, ttl, 59*time.Minute)
}

func TestSessionStorage_LoadMissing(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStorage(client)

	_, err := store.Load(context.Background(), "missing")
	assert.Equal(t, ErrNotFound, err)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = store.Load(context.Background(), "")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStorage_Delete(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStorage(client)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "slot-delete", []byte("{}"), 0))
	require.NoError(t, store.Delete(ctx, "slot-delete"))

	_, err := store.Load(ctx, "slot-delete")
	assert.Equal(t, ErrNotFound, err)

	assert.NoError(t, store.Delete(ctx, ""))
}

func TestSessionStorage_TTLExpiration(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStorage(client)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "slot-ttl", []byte("{}"), 100*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	_, err := store.Load(ctx, "slot-ttl")
	assert.Equal(t, ErrNotFound, err)
}

func TestSessionStorage_CustomPrefix(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStorageWithPrefix(client, "test-prefix:")
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, "prefix-test", []byte("{}"), time.Minute))
	assert.Equal(t, int64(1), client.Exists(ctx, "test-prefix:prefix-test").Val())
}

func TestSessionStorage_StoreRejectsBadInput(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	store := NewSessionStorage(client)
	ctx := context.Background()

	err := store.Store(ctx, "", []byte("{}"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session slot cannot be empty")

	err = store.Store(ctx, "slot", []byte("{}"), -time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ttl cannot be negative")
}

func TestSessionStorage_Ping(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	assert.NoError(t, NewSessionStorage(client).Ping(context.Background()))
}
