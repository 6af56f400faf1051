package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
)

// CacheStore is the subset of the cache used by the admin endpoints.
type CacheStore interface {
	Stats(ctx context.Context) cache.Stats
	Clear(ctx context.Context) int64
}

// CounterStore exposes hit/miss counters.
type CounterStore interface {
	Snapshot(ctx context.Context) map[string]int64
	Reset(ctx context.Context)
}

type CacheController struct {
	cache    CacheStore
	counters CounterStore
}

func NewCacheController(c CacheStore, counters CounterStore) *CacheController {
	return &CacheController{cache: c, counters: counters}
}

// HandleCacheStats returns backend statistics and hit/miss counters.
func (cc *CacheController) HandleCacheStats(c *fiber.Ctx) error {
	ctx := c.UserContext()
	return c.JSON(fiber.Map{
		"success":  true,
		"stats":    cc.cache.Stats(ctx),
		"counters": cc.counters.Snapshot(ctx),
		"message":  "Cache statistics retrieved successfully",
	})
}

// HandleCacheClear drops every cached result in the namespace and resets
// the counters.
func (cc *CacheController) HandleCacheClear(c *fiber.Ctx) error {
	ctx := c.UserContext()
	deleted := cc.cache.Clear(ctx)
	cc.counters.Reset(ctx)
	return c.JSON(fiber.Map{
		"success": true,
		"deleted": deleted,
		"message": "Cache cleared successfully",
	})
}
