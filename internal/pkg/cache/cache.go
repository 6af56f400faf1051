package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/internal/pkg/config"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
)

// TTL presets.
const (
	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
	TTLLong   = time.Hour
	TTLDay    = 24 * time.Hour
)

const (
	defaultOpTimeout = 2 * time.Second
	scanBatchSize    = 500
)

var usedMemoryHuman = regexp.MustCompile(`used_memory_human:(\S+)`)

// Stats is a diagnostic snapshot of the whole backend, not just this
// service's namespace.
type Stats struct {
	Keys   int64  `json:"keys"`
	Memory string `json:"memory"`
}

// Options configures a Service.
type Options struct {
	// Prefix namespaces every key ("<prefix>:<key>"). Clear only removes keys
	// inside the namespace.
	Prefix string
	// Timeout bounds every backend call.
	Timeout time.Duration
}

// Service is a JSON cache over redis. It never returns backend errors to
// callers: failures are logged and behave like a miss. A Service with a nil
// client is a valid, always-missing cache.
type Service struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates the redis client for the cache backend.
func NewClient(cfg config.Cache) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})
}

// New wraps an existing client.
func New(client *redis.Client, opts Options, logger *zap.Logger) *Service {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Service{
		client:  client,
		prefix:  strings.Trim(opts.Prefix, ":"),
		timeout: timeout,
		logger:  logging.OrNop(logger).Named("cache"),
	}
}

// Client exposes the underlying redis client (nil when the cache is disabled).
func (s *Service) Client() *redis.Client {
	return s.client
}

// Namespaced returns key inside the service prefix.
func (s *Service) Namespaced(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *Service) enabled() bool {
	return s != nil && s.client != nil
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Set stores value as JSON with the given TTL, replacing any existing entry.
// A non-positive ttl falls back to TTLMedium.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !s.enabled() {
		return
	}
	if ttl <= 0 {
		ttl = TTLMedium
	}
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache set: serialize failed", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.client.Set(ctx, s.Namespaced(key), payload, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Get decodes the cached JSON for key into dest and reports whether it was a
// hit. Misses, backend errors and undecodable entries all return false.
func (s *Service) Get(ctx context.Context, key string, dest any) bool {
	if !s.enabled() {
		return false
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	raw, err := s.client.Get(opCtx, s.Namespaced(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.logger.Warn("cache get: corrupt entry dropped", zap.String("key", key), zap.Error(err))
		s.Delete(ctx, key)
		return false
	}
	return true
}

// Delete removes key; deleting a missing key is a no-op.
func (s *Service) Delete(ctx context.Context, key string) {
	if !s.enabled() {
		return
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.client.Del(ctx, s.Namespaced(key)).Err(); err != nil {
		s.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// Exists reports whether an unexpired entry is stored for key.
func (s *Service) Exists(ctx context.Context, key string) bool {
	if !s.enabled() {
		return false
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	n, err := s.client.Exists(ctx, s.Namespaced(key)).Result()
	if err != nil {
		s.logger.Warn("cache exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return n == 1
}

// Clear removes every key in the namespace and returns how many were deleted.
// Without a prefix the whole logical database is flushed.
func (s *Service) Clear(ctx context.Context) int64 {
	if !s.enabled() {
		return 0
	}

	if s.prefix == "" {
		opCtx, cancel := s.opContext(ctx)
		defer cancel()
		n, _ := s.client.DBSize(opCtx).Result()
		if err := s.client.FlushDB(opCtx).Err(); err != nil {
			s.logger.Error("cache clear failed", zap.Error(err))
			return 0
		}
		return n
	}

	var deleted int64
	var cursor uint64
	pattern := s.prefix + ":*"
	for {
		opCtx, cancel := s.opContext(ctx)
		keys, next, err := s.client.Scan(opCtx, cursor, pattern, scanBatchSize).Result()
		if err == nil && len(keys) > 0 {
			var n int64
			n, err = s.client.Del(opCtx, keys...).Result()
			deleted += n
		}
		cancel()
		if err != nil {
			s.logger.Error("cache clear failed", zap.Int64("deleted", deleted), zap.Error(err))
			return deleted
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	s.logger.Info("cache cleared", zap.String("namespace", s.prefix), zap.Int64("deleted", deleted))
	return deleted
}

// Stats reports key count and memory use of the backend. Values are
// informational; failures yield zero values.
func (s *Service) Stats(ctx context.Context) Stats {
	stats := Stats{Memory: "0B"}
	if !s.enabled() {
		return stats
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if n, err := s.client.DBSize(ctx).Result(); err == nil {
		stats.Keys = n
	} else {
		s.logger.Warn("cache stats: dbsize failed", zap.Error(err))
	}
	if info, err := s.client.Info(ctx, "memory").Result(); err == nil {
		if m := usedMemoryHuman.FindStringSubmatch(info); m != nil {
			stats.Memory = m[1]
		}
	} else {
		s.logger.Debug("cache stats: info memory unavailable", zap.Error(err))
	}
	return stats
}

// Ping checks backend reachability. Unlike the other operations it returns
// the error, for health checks.
func (s *Service) Ping(ctx context.Context) error {
	if !s.enabled() {
		return errors.New("cache disabled")
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Key builds a deterministic cache key from a computation kind and its
// inputs, in order. Each part is query-escaped, so no input can forge the
// ":" delimiter and distinct inputs never share a key.
func Key(kind string, parts ...any) string {
	var b strings.Builder
	b.WriteString(url.QueryEscape(kind))
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(fmt.Sprint(p)))
	}
	return b.String()
}
