package counter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
)

const (
	// CacheCountersKey holds hit/miss tallies per computation kind.
	CacheCountersKey = "counters:cache"

	opTimeout = time.Second
)

// Counter keeps best-effort tallies in a redis hash. Errors are logged and
// swallowed; a nil Counter or nil client is a no-op.
type Counter struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// New creates a counter stored under key.
func New(client *redis.Client, key string, logger *zap.Logger) *Counter {
	return &Counter{client: client, key: key, logger: logging.OrNop(logger).Named("counter")}
}

// Add increments field by delta.
func (c *Counter) Add(ctx context.Context, field string, delta int64) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.HIncrBy(ctx, c.key, field, delta).Err(); err != nil {
		c.logger.Debug("counter increment failed", zap.String("field", field), zap.Error(err))
	}
}

// Hit records a cache hit for kind.
func (c *Counter) Hit(ctx context.Context, kind string) {
	c.Add(ctx, kind+":hits", 1)
}

// Miss records a cache miss for kind.
func (c *Counter) Miss(ctx context.Context, kind string) {
	c.Add(ctx, kind+":misses", 1)
}

// Snapshot returns all tallies. Unparseable fields are skipped.
func (c *Counter) Snapshot(ctx context.Context) map[string]int64 {
	out := map[string]int64{}
	if c == nil || c.client == nil {
		return out
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	data, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		c.logger.Debug("counter snapshot failed", zap.Error(err))
		return out
	}
	for k, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[k] = n
	}
	return out
}

// Reset drops all tallies.
func (c *Counter) Reset(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		c.logger.Debug("counter reset failed", zap.Error(err))
	}
}
