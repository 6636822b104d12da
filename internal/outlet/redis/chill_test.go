package redis

import (
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &Redis{Client: client, Logger: log.Default()}, mr
}

func TestMarkAndClearChill(t *testing.T) {
	r, _ := setupTestRedis(t)

	require.NoError(t, r.MarkChilled("outlet-1", 10*time.Minute))

	chilled, err := r.IsChilled("outlet-1")
	require.NoError(t, err)
	assert.True(t, chilled)

	require.NoError(t, r.ClearChilled("outlet-1"))

	chilled, err = r.IsChilled("outlet-1")
	require.NoError(t, err)
	assert.False(t, chilled)
}

func TestChillKeyExpires(t *testing.T) {
	r, mr := setupTestRedis(t)

	require.NoError(t, r.MarkChilled("outlet-1", 10*time.Minute))

	// miniredis advances TTLs manually.
	mr.FastForward(11 * time.Minute)

	chilled, err := r.IsChilled("outlet-1")
	require.NoError(t, err)
	assert.False(t, chilled)
}

func TestOutletIDFromExpiredKey(t *testing.T) {
	assert.Equal(t, "outlet-7", OutletIDFromExpiredKey("chill:outlet-7"))
	assert.Equal(t, "", OutletIDFromExpiredKey("seat_lock:abc"))
	assert.Equal(t, "", OutletIDFromExpiredKey("chill:"))
}
