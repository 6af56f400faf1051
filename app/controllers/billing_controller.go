package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ManuelReschke/MealPilot/internal/pkg/billing"
	"github.com/ManuelReschke/MealPilot/internal/pkg/logging"
	"github.com/ManuelReschke/MealPilot/internal/pkg/usercontext"
)

// BillingController serves the Stripe webhook and the user-initiated
// subscription endpoints.
type BillingController struct {
	reconciler *billing.Reconciler
	service    *billing.Service
	timeout    time.Duration
	logger     *zap.Logger
}

// NewBillingController creates a billing controller. timeout bounds each
// webhook delivery.
func NewBillingController(reconciler *billing.Reconciler, service *billing.Service, timeout time.Duration, logger *zap.Logger) *BillingController {
	return &BillingController{
		reconciler: reconciler,
		service:    service,
		timeout:    timeout,
		logger:     logging.OrNop(logger).Named("billing_controller"),
	}
}

// HandleStripeWebhook applies a Stripe event. Non-2xx responses make Stripe
// redeliver.
func (bc *BillingController) HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := c.Get(billing.SignatureHeader)

	ctx, cancel := context.WithTimeout(c.UserContext(), bc.timeout)
	defer cancel()

	out, err := bc.reconciler.HandleWebhook(ctx, rawBody, signature)
	switch {
	case errors.Is(err, billing.ErrInvalidSignature):
		return errorJSON(c, fiber.StatusBadRequest, "invalid_signature", "Webhook signature verification failed")
	case errors.Is(err, billing.ErrMalformedPayload):
		return errorJSON(c, fiber.StatusBadRequest, "invalid_payload", "Webhook payload could not be parsed")
	case err != nil:
		return errorJSON(c, fiber.StatusInternalServerError, "store_unavailable", "Webhook could not be applied")
	}

	resp := fiber.Map{"received": true}
	if out.Ignored {
		resp["ignored"] = true
	}
	if out.Duplicate {
		resp["duplicate"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandlePlans lists the plan catalog.
func (bc *BillingController) HandlePlans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": billing.Catalog()})
}

type checkoutRequest struct {
	PlanType string `json:"planType"`
	Email    string `json:"email"`
}

// HandleCheckout starts a hosted checkout for the signed-in principal.
func (bc *BillingController) HandleCheckout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req checkoutRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = userCtx.Email
	}
	if strings.TrimSpace(req.PlanType) == "" || email == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Plan type and email are required")
	}

	url, err := bc.service.Checkout(c.UserContext(), userCtx.UserID, email, req.PlanType)
	if err != nil {
		return bc.handleError(c, "checkout failed", err)
	}
	return c.JSON(fiber.Map{"url": url})
}

// HandleSubscriptionStatus returns the principal's tier and active flag.
func (bc *BillingController) HandleSubscriptionStatus(c *fiber.Ctx) error {
	status, err := bc.service.Status(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return bc.handleError(c, "status lookup failed", err)
	}
	return c.JSON(fiber.Map{"subscription": status})
}

type changePlanRequest struct {
	NewPlan string `json:"newPlan"`
}

// HandleChangePlan moves the principal's subscription to another plan.
func (bc *BillingController) HandleChangePlan(c *fiber.Ctx) error {
	var req changePlanRequest
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.NewPlan) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "New plan is required")
	}

	userID := usercontext.GetUserID(c)
	profile, err := bc.service.ChangePlan(c.UserContext(), userID, req.NewPlan)
	if err != nil {
		return bc.handleError(c, "plan change failed", err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"subscription": billing.Status{Tier: profile.Tier(), Active: profile.SubscriptionActive},
	})
}

// HandleUnsubscribe cancels the principal's subscription at period end.
func (bc *BillingController) HandleUnsubscribe(c *fiber.Ctx) error {
	if err := bc.service.Unsubscribe(c.UserContext(), usercontext.GetUserID(c)); err != nil {
		return bc.handleError(c, "unsubscribe failed", err)
	}
	return c.JSON(fiber.Map{"success": true, "subscription": billing.Status{}})
}

func (bc *BillingController) handleError(c *fiber.Ctx, msg string, err error) error {
	switch {
	case errors.Is(err, billing.ErrUnknownPlan):
		return errorJSON(c, fiber.StatusBadRequest, "invalid_plan", "Invalid plan type")
	case errors.Is(err, billing.ErrProfileNotFound):
		return errorJSON(c, fiber.StatusNotFound, "not_found", "No profile found")
	case errors.Is(err, billing.ErrNoSubscription):
		return errorJSON(c, fiber.StatusConflict, "no_subscription", "No active subscription plan found.")
	case errors.Is(err, billing.ErrGatewayUnavailable):
		bc.logger.Error(msg, zap.Error(err))
		return errorJSON(c, fiber.StatusBadGateway, "payment_gateway_error", "Payment provider unavailable, please try again")
	case errors.Is(err, billing.ErrStoreUnavailable):
		bc.logger.Error(msg, zap.Error(err))
		return errorJSON(c, fiber.StatusServiceUnavailable, "store_unavailable", "Please try again later")
	default:
		bc.logger.Error(msg, zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "internal_server_error", "Internal Server Error")
	}
}
