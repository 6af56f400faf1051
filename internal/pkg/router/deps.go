package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/app/controllers"
	"github.com/ManuelReschke/MealPilot/internal/pkg/config"
	"github.com/ManuelReschke/MealPilot/internal/pkg/middleware"
)

// Deps carries everything the routes need. Built once by the serve command.
type Deps struct {
	Config *config.Config
	Gate   middleware.EntitlementChecker

	Billing      *controllers.BillingController
	Subscription *controllers.SubscriptionController
	Cache        *controllers.CacheController
	MealPlan     *controllers.MealPlanController
	Health       *controllers.HealthController
	Admin        *controllers.AdminController

	// LimiterStorage backs the API rate limiter; nil keeps counters in memory.
	LimiterStorage fiber.Storage
}
