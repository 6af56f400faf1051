package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/internal/pkg/constants"
	"github.com/ManuelReschke/MealPilot/internal/pkg/entitlements"
	"github.com/ManuelReschke/MealPilot/internal/pkg/flash"
	"github.com/ManuelReschke/MealPilot/internal/pkg/usercontext"
)

// EntitlementChecker is the access decision used by the subscription guards.
type EntitlementChecker interface {
	CheckEntitlement(ctx context.Context, userID string) entitlements.Decision
}

// RequireSubscription guards pages: principals without an active
// subscription are sent to /subscribe with a flash message. Must run after
// RequireAuth.
func RequireSubscription(gate EntitlementChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := gate.CheckEntitlement(c.UserContext(), usercontext.GetUserID(c))
		if !d.Allowed {
			return flash.Redirect(c, flash.TypeError, "An active subscription is required to access this page.", constants.SubscribeRoute)
		}
		c.Locals(usercontext.KeyEntitlement, d)
		return c.Next()
	}
}

// RequireAPISubscription guards API routes and answers 403 JSON on denial.
func RequireAPISubscription(gate EntitlementChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d := gate.CheckEntitlement(c.UserContext(), usercontext.GetUserID(c))
		if !d.Allowed {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "subscription_required",
				"message": "An active subscription is required.",
				"reason":  d.Reason,
			})
		}
		c.Locals(usercontext.KeyEntitlement, d)
		return c.Next()
	}
}
