package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLatch(t *testing.T) *OAuthLatch {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewOAuthLatch(client)
}

func TestOAuthLatch_FirstAcquireWins(t *testing.T) {
	latch := newTestLatch(t)
	ctx := context.Background()

	first, err := latch.Acquire(ctx, "state-abc")
	require.NoError(t, err)
	require.True(t, first)

	second, err := latch.Acquire(ctx, "state-abc")
	require.NoError(t, err)
	require.False(t, second)
}

func TestOAuthLatch_DistinctStatesAreIndependent(t *testing.T) {
	latch := newTestLatch(t)
	ctx := context.Background()

	ok, err := latch.Acquire(ctx, "state-1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = latch.Acquire(ctx, "state-2")
	require.NoError(t, err)
	require.True(t, ok)
}
