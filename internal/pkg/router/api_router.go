package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/app/controllers"
	"github.com/ManuelReschke/MealPilot/internal/pkg/constants"
	"github.com/ManuelReschke/MealPilot/internal/pkg/middleware"
	"github.com/ManuelReschke/MealPilot/internal/pkg/ratelimit"
)

type ApiRouter struct {
	deps Deps
}

func NewApiRouter(deps Deps) *ApiRouter {
	return &ApiRouter{deps: deps}
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	cfg := h.deps.Config

	api := app.Group("/api", ratelimit.New(ratelimit.Options{
		Max:     cfg.RateLimitMax,
		Window:  cfg.RateLimitWindow,
		Storage: h.deps.LimiterStorage,
		KeyFunc: controllers.RateLimitKey,
		Skip: func(c *fiber.Ctx) bool {
			return c.Path() == constants.WebhookRoute
		},
	}))

	// Payment processor webhook, signature-verified in the controller
	api.Post("/webhook", h.deps.Billing.HandleStripeWebhook)

	api.Get("/plans", h.deps.Billing.HandlePlans)
	api.Get("/check-subscription", h.deps.Subscription.HandleCheckSubscription)

	api.Post("/checkout", middleware.RequireAPIAuth, h.deps.Billing.HandleCheckout)
	api.Post("/generate-mealplan",
		middleware.RequireAPIAuth,
		middleware.RequireAPISubscription(h.deps.Gate),
		h.deps.MealPlan.HandleGenerate,
	)

	profile := api.Group("/profile", middleware.RequireAPIAuth)
	profile.Get("/subscription-status", h.deps.Billing.HandleSubscriptionStatus)
	profile.Post("/change-plan", h.deps.Billing.HandleChangePlan)
	profile.Post("/unsubscribe", h.deps.Billing.HandleUnsubscribe)

	admin := middleware.AdminAuth(cfg.Admin.User, cfg.Admin.PasswordHash)
	api.Get("/cache", admin, h.deps.Cache.HandleCacheStats)
	api.Delete("/cache", admin, h.deps.Cache.HandleCacheClear)
	api.Get("/admin/statistics", admin, h.deps.Admin.HandleStatistics)
}
