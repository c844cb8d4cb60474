package inflight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/seat-reservation-web/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix      = "inflight:"
	releaseTimeout = 2 * time.Second
)

// Deletes the lock only when it is still owned by the caller's token.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// Redis guards actions across every instance sharing the Redis server. The
// ttl bounds how long a crashed instance can keep an action locked.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (g *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	lockKey := keyPrefix + key
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, lockKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", lockKey, err)
	}

	if !ok {
		return nil, domain.ErrActionInFlight
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// the request context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()

			err := releaseScript.Run(ctx, g.client, []string{lockKey}, token).Err()
			if err != nil {
				g.logger.Error("failed to release in-flight lock", "key", lockKey, "error", err)
			}
		})
	}

	return release, nil
}
