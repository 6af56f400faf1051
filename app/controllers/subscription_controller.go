package controllers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/internal/pkg/entitlements"
)

// EntitlementChecker answers access decisions.
type EntitlementChecker interface {
	CheckEntitlement(ctx context.Context, userID string) entitlements.Decision
}

// SubscriptionController exposes the entitlement check to routing layers.
type SubscriptionController struct {
	gate EntitlementChecker
}

func NewSubscriptionController(gate EntitlementChecker) *SubscriptionController {
	return &SubscriptionController{gate: gate}
}

// HandleCheckSubscription answers GET /api/check-subscription?userId=.
func (sc *SubscriptionController) HandleCheckSubscription(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Missing userId")
	}

	d := sc.gate.CheckEntitlement(c.UserContext(), userID)
	status := fiber.StatusOK
	if d.Reason == entitlements.ReasonStoreUnavailable {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(fiber.Map{
		"subscriptionActive": d.Allowed,
		"allowed":            d.Allowed,
	})
}
