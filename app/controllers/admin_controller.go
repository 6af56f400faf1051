package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
	"github.com/ManuelReschke/MealPilot/internal/pkg/monitor"
	"github.com/ManuelReschke/MealPilot/internal/pkg/statistics"
)

// StatisticsSource computes the admin statistics snapshot.
type StatisticsSource interface {
	Get(ctx context.Context) (monitor.Result[statistics.Data], error)
}

// AdminController serves admin-only dashboards.
type AdminController struct {
	stats  StatisticsSource
	logger *zap.Logger
}

// NewAdminController creates a new admin controller
func NewAdminController(stats StatisticsSource, logger *zap.Logger) *AdminController {
	return &AdminController{
		stats:  stats,
		logger: logging.OrNop(logger).Named("admin_controller"),
	}
}

// HandleStatistics returns subscriber and webhook figures.
func (ac *AdminController) HandleStatistics(c *fiber.Ctx) error {
	res, err := ac.stats.Get(c.UserContext())
	if err != nil {
		return ac.handleError(c, "Failed to get statistics", err)
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"statistics":     res.Data,
		"cached":         res.CacheHit,
		"responseTimeMs": res.ResponseTimeMs(),
	})
}

func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	ac.logger.Error(message, zap.Error(err))
	return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", message)
}
