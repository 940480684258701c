package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	apperrors "github.com/cove/agent-demo/internal/errors"
)

const lockPollInterval = 50 * time.Millisecond

// releaseScript deletes the lock only if it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// TurnLocker serializes conversation turns per session across processes.
// A held lock expires after ttl so a crashed holder cannot wedge a session.
type TurnLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewTurnLocker(client *redis.Client, ttl, wait time.Duration) *TurnLocker {
	return &TurnLocker{client: client, ttl: ttl, wait: wait}
}

// Acquire blocks until the session's lock is held, ctx is done, or the wait
// budget runs out. The latter yields a CONFLICT error.
func (l *TurnLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := TurnLockKey(sessionID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire turn lock: %w", err)
		}
		if ok {
			return func() { l.release(key, token) }, nil
		}

		if time.Now().After(deadline) {
			return nil, apperrors.Conflict("Another message for this session is still being processed")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *TurnLocker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		log.Warn().Err(err).Str("key", key).Msg("failed to release turn lock")
	}
}
