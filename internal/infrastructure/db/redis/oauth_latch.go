package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const latchTTL = 10 * time.Minute

// OAuthLatch is a processed-once guard for OAuth callback completions, backed
// by Redis. The latch key is the OAuth state parameter, so idempotency is per
// authorization request rather than per client instance: a double-submitted
// or duplicate callback acquires the latch at most once regardless of which
// process handles it.
// Key format: oauth:state:<state>
type OAuthLatch struct {
	client *redis.Client
}

// NewOAuthLatch creates an OAuthLatch wrapping the given Redis client.
func NewOAuthLatch(client *redis.Client) *OAuthLatch {
	return &OAuthLatch{client: client}
}

// Acquire reports whether the caller is the first completion for this state.
// The latch expires after latchTTL, comfortably beyond any provider's
// authorization-code lifetime.
func (l *OAuthLatch) Acquire(ctx context.Context, state string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(state), "1", latchTTL).Result()
	if err != nil {
		return false, fmt.Errorf("oauth latch: %w", err)
	}
	return ok, nil
}

func (l *OAuthLatch) key(state string) string {
	return "oauth:state:" + state
}
