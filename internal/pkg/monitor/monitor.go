// Package monitor wraps expensive operations in cache-aside semantics and
// reports whether a result came from the cache and how long it took.
package monitor

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
	"github.com/ManuelReschke/MealPilot/internal/pkg/metrics/counter"
)

// Result carries an operation's data plus cache metadata.
type Result[T any] struct {
	Data         T
	CacheHit     bool
	ResponseTime time.Duration
}

// ResponseTimeMs returns the elapsed time in milliseconds.
func (r Result[T]) ResponseTimeMs() int64 {
	return r.ResponseTime.Milliseconds()
}

// Options configures a Monitor.
type Options struct {
	// Coalesce collapses concurrent misses on the same key into a single
	// operation call.
	Coalesce bool
}

// Monitor performs cache-aside lookups. Without coalescing, concurrent misses
// on the same key each run the operation.
type Monitor struct {
	cache    *cache.Service
	counter  *counter.Counter
	coalesce bool
	group    singleflight.Group
	logger   *zap.Logger
}

// New creates a Monitor. counter may be nil.
func New(c *cache.Service, hits *counter.Counter, opts Options, logger *zap.Logger) *Monitor {
	return &Monitor{
		cache:    c,
		counter:  hits,
		coalesce: opts.Coalesce,
		logger:   logging.OrNop(logger).Named("monitor"),
	}
}

// Measure returns the cached value for key when present. Otherwise it runs op,
// stores the result for ttl and returns it. Errors from op are returned as-is
// and never cached. kind is used for hit/miss tallies.
func Measure[T any](ctx context.Context, m *Monitor, kind, key string, ttl time.Duration, op func(context.Context) (T, error)) (Result[T], error) {
	start := time.Now()

	var cached T
	if m.cache.Get(ctx, key, &cached) {
		m.counter.Hit(ctx, kind)
		return Result[T]{Data: cached, CacheHit: true, ResponseTime: time.Since(start)}, nil
	}
	m.counter.Miss(ctx, kind)

	run := func() (T, error) {
		data, err := op(ctx)
		if err != nil {
			return data, err
		}
		// Store even if the caller has gone away.
		m.cache.Set(context.WithoutCancel(ctx), key, data, ttl)
		return data, nil
	}

	if !m.coalesce {
		data, err := run()
		if err != nil {
			return Result[T]{ResponseTime: time.Since(start)}, err
		}
		return Result[T]{Data: data, ResponseTime: time.Since(start)}, nil
	}

	v, err, shared := m.group.Do(key, func() (any, error) {
		return run()
	})
	if err != nil {
		return Result[T]{ResponseTime: time.Since(start)}, err
	}
	if shared {
		m.logger.Debug("coalesced miss", zap.String("key", key))
	}
	data, ok := v.(T)
	if !ok {
		// A shared result of an unexpected type means two callers used the
		// same key with different types; fall back to a JSON round trip.
		raw, merr := json.Marshal(v)
		if merr == nil {
			merr = json.Unmarshal(raw, &data)
		}
		if merr != nil {
			return Result[T]{ResponseTime: time.Since(start)}, merr
		}
	}
	return Result[T]{Data: data, ResponseTime: time.Since(start)}, nil
}
