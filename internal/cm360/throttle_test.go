package cm360

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_Allow(t *testing.T) {
	bucket := NewTokenBucket(3, 1)
	for i := 0; i < 3; i++ {
		assert.True(t, bucket.Allow(), "request %d", i+1)
	}
	assert.False(t, bucket.Allow())
}

func TestTokenBucket_WaitRefills(t *testing.T) {
	bucket := NewTokenBucket(1, 20)
	require.NoError(t, bucket.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, bucket.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	waited, total := bucket.Stats()
	assert.Equal(t, int64(1), waited)
	assert.Equal(t, int64(2), total)
}

func TestTokenBucket_WaitHonoursContext(t *testing.T) {
	bucket := NewTokenBucket(1, 1)
	require.True(t, bucket.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bucket.Wait(ctx), context.DeadlineExceeded)
}

func TestThrottle_PerCredentialBuckets(t *testing.T) {
	th := NewThrottle(1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, th.Wait(ctx, "a"))
	require.NoError(t, th.Wait(ctx, "b"))
	assert.Error(t, th.Wait(ctx, "a"))

	th.Forget("a")
	assert.NoError(t, th.Wait(context.Background(), "a"))
}

func TestThrottle_DisabledAndNil(t *testing.T) {
	var nilThrottle *Throttle
	assert.NoError(t, nilThrottle.Wait(context.Background(), "x"))

	off := NewThrottle(1, 0)
	for i := 0; i < 5; i++ {
		assert.NoError(t, off.Wait(context.Background(), "x"))
	}
}

func TestClient_ThrottleAbortsCall(t *testing.T) {
	var calls int
	s, _ := newTestSession(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"advertisers":[]}`))
	})
	s.client.SetThrottle(NewThrottle(1, 1))

	_, err := s.ListAdvertisers(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.ListAdvertisers(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}
