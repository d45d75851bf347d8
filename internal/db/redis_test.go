package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ttl)
	t.Cleanup(store.Close)
	return store, mr
}

func TestSessionRoundTrip(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()

	in := Session{ID: "s1", Token: "tok", ProfileID: "42", AccountID: "7", UserName: "Ops", Email: "ops@example.com"}
	require.NoError(t, store.SaveSession(ctx, in))

	assert.True(t, mr.Exists("session:s1"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))
	assert.Equal(t, "42", mr.HGet("session:s1", "profile_id"))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, "ops@example.com", got.Email)
	assert.NotZero(t, got.CreatedAt)
}

func TestSessionExpires(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, Session{ID: "s1", Token: "tok"}))

	mr.FastForward(2 * time.Minute)
	_, err := store.LoadSession(ctx, "s1")
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestLoadRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, Session{ID: "s1", Token: "tok"}))

	mr.FastForward(50 * time.Second)
	_, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, mr.TTL("session:s1"))
}

func TestDeleteSessionIsUnconditional(t *testing.T) {
	store, mr := newTestStore(t, time.Hour)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, Session{ID: "s1", Token: "tok"}))

	require.NoError(t, store.DeleteSession(ctx, "s1"))
	require.NoError(t, store.DeleteSession(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1"))

	_, err := store.LoadSession(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSaveReplacesPreviousFields(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()
	require.NoError(t, store.SaveSession(ctx, Session{ID: "s1", Token: "a", Picture: "p.png"}))
	require.NoError(t, store.SaveSession(ctx, Session{ID: "s1", Token: "b"}))

	got, err := store.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Token)
	assert.Empty(t, got.Picture)
}
