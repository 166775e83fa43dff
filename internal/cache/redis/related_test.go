package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pct1089547896/games-marketplace-sub000/internal/domain"
)

func setupTestRedis(t *testing.T) (*RelatedCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRelatedCache(client, 10*time.Minute), mr
}

var ref = domain.ContentRef{ContentID: "game-1", ContentType: domain.ContentTypeGame}

func TestRelatedCache_MissThenHit(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, ref, 6)
	require.NoError(t, err)
	assert.False(t, hit)

	items := []domain.CatalogItem{
		{ID: "game-2", ContentType: domain.ContentTypeGame, Title: "Moon Miner", Tags: []string{"space"}, DownloadCount: 2200},
	}
	require.NoError(t, cache.Set(ctx, ref, 6, items))

	got, hit, err := cache.Get(ctx, ref, 6)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, items, got)

	_, hit, err = cache.Get(ctx, ref, 3)
	require.NoError(t, err)
	assert.False(t, hit, "limits are cached separately")

	assert.True(t, mr.Exists("related:game:game-1"))
	assert.Equal(t, 10*time.Minute, mr.TTL("related:game:game-1"))
}

func TestRelatedCache_Expires(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, ref, 6, []domain.CatalogItem{}))
	mr.FastForward(11 * time.Minute)

	_, hit, err := cache.Get(ctx, ref, 6)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRelatedCache_Invalidate(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, ref, 6, []domain.CatalogItem{}))
	require.NoError(t, cache.Set(ctx, ref, 12, []domain.CatalogItem{}))
	require.NoError(t, cache.Invalidate(ctx, ref))

	assert.False(t, mr.Exists("related:game:game-1"))
}

func TestRelatedCache_CorruptEntry(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.HSet("related:game:game-1", "6", "{not json")

	_, _, err := cache.Get(context.Background(), ref, 6)
	assert.Error(t, err)
}

func TestRelatedCache_ServerDown(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Close()

	_, _, err := cache.Get(context.Background(), ref, 6)
	assert.Error(t, err)
}
