package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T) (*RedisKV, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKV(client), mr
}

func TestRedisKV_GetMiss(t *testing.T) {
	kv, _ := newTestKV(t)

	_, err := kv.Get(context.Background(), "nope")

	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_SetGetExpire(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Minute))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	mr.FastForward(2 * time.Minute)
	_, err = kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_Del(t *testing.T) {
	kv, mr := newTestKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "a", "1", 0))
	require.NoError(t, kv.Set(ctx, "b", "2", 0))
	require.NoError(t, kv.Del(ctx, "a", "b"))
	require.NoError(t, kv.Del(ctx))

	assert.False(t, mr.Exists("a"))
	assert.False(t, mr.Exists("b"))
}

func TestJSONHelpers(t *testing.T) {
	kv, _ := newTestKV(t)
	ctx := context.Background()

	type payload struct {
		Score int `json:"score"`
	}
	require.NoError(t, SetJSON(ctx, kv, "score", payload{Score: 87}, time.Minute))

	var out payload
	require.NoError(t, GetJSON(ctx, kv, "score", &out))
	assert.Equal(t, 87, out.Score)

	assert.ErrorIs(t, GetJSON(ctx, kv, "missing", &out), ErrMiss)
}
