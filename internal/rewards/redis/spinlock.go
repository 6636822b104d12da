package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const spinKeyPrefix = "spin_lock:"

// DefaultSpinTTL bounds how long a crashed spin can hold its lock.
const DefaultSpinTTL = 10 * time.Second

// Redis serializes wheel spins per user. A spin holds the lock for the
// duration of the debit-draw-claim transaction; a second spin arriving in
// that window is rejected instead of queued.
type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

// AcquireSpin takes the per-user spin lock. Returns false if another spin
// already holds it.
func (r *Redis) AcquireSpin(ctx context.Context, userID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultSpinTTL
	}
	return r.Client.SetNX(ctx, spinKeyPrefix+userID, time.Now().Unix(), ttl).Result()
}

func (r *Redis) ReleaseSpin(ctx context.Context, userID string) error {
	_, err := r.Client.Del(ctx, spinKeyPrefix+userID).Result()
	return err
}
