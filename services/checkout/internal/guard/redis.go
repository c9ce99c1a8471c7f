package guard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// defaultHoldTTL bounds how long a crashed holder can block a user's
// checkouts before the key expires on its own.
const defaultHoldTTL = 30 * time.Second

// releaseScript deletes the guard key only if this holder still owns it,
// so an expired-and-reacquired guard is never released by the old holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a distributed Guard backed by a Redis SET NX lease.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: defaultHoldTTL, logger: logger}
}

func guardKey(userID string) string {
	return "checkout:guard:" + userID
}

// Acquire takes the per-user lease. ErrHeld is returned when another
// attempt holds it; any other failure is a Redis error.
func (r *Redis) Acquire(ctx context.Context, userID string) (func(), error) {
	token := uuid.NewString()
	key := guardKey(userID)

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire checkout guard: %w", err)
	}
	if !ok {
		return nil, ErrHeld
	}

	release := func() {
		// Release on a fresh context so a canceled checkout still frees
		// the guard.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
			r.logger.Warn("failed to release checkout guard, lease will expire",
				slog.String("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}
	return release, nil
}
