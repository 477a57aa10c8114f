package anchor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/sgxsync/internal/contracts"
	"github.com/wonny/sgxsync/pkg/redis"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStore(redis.NewFromRedis(rdb)), mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	tick := Anchor{Series: contracts.SeriesTick, Date: d("2026-02-03"), ID: 4185}
	tc := Anchor{Series: contracts.SeriesTC, Date: d("2026-02-03"), ID: 4436}
	require.NoError(t, store.Save(ctx, tick))
	require.NoError(t, store.Save(ctx, tc))

	assert.Equal(t, "4185", mr.HGet("sgxsync:anchors:tick", "2026-02-03"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Anchor{tick, tc}, got)
	assert.NoError(t, store.Close())
}

func TestRedisStore_OverwritesSameDate(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t)

	require.NoError(t, store.Save(ctx, Anchor{Series: contracts.SeriesTick, Date: d("2026-02-03"), ID: 4185}))
	require.NoError(t, store.Save(ctx, Anchor{Series: contracts.SeriesTick, Date: d("2026-02-03"), ID: 4186}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 4186, got[0].ID)
}

func TestRedisStore_CorruptEntries(t *testing.T) {
	ctx := context.Background()

	t.Run("bad id", func(t *testing.T) {
		store, mr := newRedisStore(t)
		mr.HSet("sgxsync:anchors:tc", "2026-02-03", "x")

		_, err := store.Load(ctx)
		assert.Error(t, err)
	})

	t.Run("bad date", func(t *testing.T) {
		store, mr := newRedisStore(t)
		mr.HSet("sgxsync:anchors:tick", "03/02/2026", "4185")

		_, err := store.Load(ctx)
		assert.Error(t, err)
	})
}

func TestRedisStore_ServerDown(t *testing.T) {
	store, mr := newRedisStore(t)
	mr.Close()

	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStore_Disabled(t *testing.T) {
	ctx := context.Background()
	store := NewRedisStore(redis.NewFromRedis(nil))

	require.NoError(t, store.Save(ctx, Anchor{Series: contracts.SeriesTick, Date: d("2026-02-03"), ID: 4185}))
	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
