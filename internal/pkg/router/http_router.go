package router

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/internal/pkg/constants"
	"github.com/ManuelReschke/MealPilot/internal/pkg/middleware"
)

type HttpRouter struct {
	deps Deps
}

func NewHttpRouter(deps Deps) *HttpRouter {
	return &HttpRouter{deps: deps}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	cfg := h.deps.Config

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware(cfg.PrincipalHeader))

	app.Get("/healthz", h.deps.Health.HandleHealth)

	// Subscriber-only pages
	mealplanDir := filepath.Join(cfg.PublicDir, strings.TrimPrefix(constants.MealPlanRoute, "/"))
	if _, err := os.Stat(mealplanDir); err == nil {
		app.Use(constants.MealPlanRoute, middleware.RequireAuth, middleware.RequireSubscription(h.deps.Gate))
		app.Static(constants.MealPlanRoute, mealplanDir, fiber.Static{
			CacheDuration: 15 * time.Second,
			Compress:      true,
		})
	}
}
