package counter

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestCounter_HitMissSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	c := New(client, "test:"+CacheCountersKey, nil)

	c.Hit(ctx, "mealplan")
	c.Hit(ctx, "mealplan")
	c.Miss(ctx, "mealplan")

	snap := c.Snapshot(ctx)
	assert.Equal(t, int64(2), snap["mealplan:hits"])
	assert.Equal(t, int64(1), snap["mealplan:misses"])

	c.Reset(ctx)
	assert.Empty(t, c.Snapshot(ctx))
}

func TestCounter_NilIsNoop(t *testing.T) {
	var c *Counter
	ctx := context.Background()

	c.Hit(ctx, "x")
	assert.Empty(t, c.Snapshot(ctx))

	noClient := New(nil, "k", nil)
	noClient.Miss(ctx, "x")
	assert.Empty(t, noClient.Snapshot(ctx))
}
