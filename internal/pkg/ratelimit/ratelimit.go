// Package ratelimit throttles API requests with counters kept in redis, so
// limits hold across instances.
package ratelimit

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/ManuelReschke/MealPilot/internal/pkg/config"
)

// NewStorage creates the limiter storage on its own redis database, apart
// from cached results.
func NewStorage(cfg config.Cache) fiber.Storage {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		port = 6379
	}
	return redis.New(redis.Config{
		Host:     cfg.Host,
		Port:     port,
		Password: cfg.Password,
		Database: cfg.LimiterDB,
		Reset:    false,
	})
}

// Options configures the limiter middleware.
type Options struct {
	Max     int
	Window  time.Duration
	Storage fiber.Storage
	KeyFunc func(*fiber.Ctx) string
	// Skip exempts requests, e.g. processor webhooks.
	Skip func(*fiber.Ctx) bool
}

// New returns the limiter handler. A Max of 0 disables limiting.
func New(opts Options) fiber.Handler {
	if opts.Max <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:          opts.Max,
		Expiration:   opts.Window,
		Storage:      opts.Storage,
		KeyGenerator: opts.KeyFunc,
		Next:         opts.Skip,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":   "rate_limited",
				"message": "Too many requests, please slow down",
			})
		},
	})
}
