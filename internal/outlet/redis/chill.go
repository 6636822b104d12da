package redis

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const chillKeyPrefix = "chill:"

// Redis mirrors active chill periods as TTL keys so expiry can be observed
// through keyspace notifications. The database timestamp stays
// authoritative; this mirror exists only for best-effort re-announcements.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client, Logger: log.Default()}
}

func (r *Redis) MarkChilled(outletID string, ttl time.Duration) error {
	key := chillKeyPrefix + outletID
	return r.Client.Set(context.Background(), key, time.Now().Add(ttl).Unix(), ttl).Err()
}

func (r *Redis) ClearChilled(outletID string) error {
	key := chillKeyPrefix + outletID
	_, err := r.Client.Del(context.Background(), key).Result()
	return err
}

// IsChilled reports whether the mirror key is still alive.
func (r *Redis) IsChilled(outletID string) (bool, error) {
	key := chillKeyPrefix + outletID
	_, err := r.Client.Get(context.Background(), key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// OutletIDFromExpiredKey extracts the outlet ID from an expired-key event
// payload, or "" if the key is not a chill mirror.
func OutletIDFromExpiredKey(key string) string {
	if len(key) > len(chillKeyPrefix) && key[:len(chillKeyPrefix)] == chillKeyPrefix {
		return key[len(chillKeyPrefix):]
	}
	return ""
}
