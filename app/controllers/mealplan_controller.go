package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/internal/pkg/mealplan"
)

// MealPlanGenerator produces meal plans.
type MealPlanGenerator interface {
	Generate(ctx context.Context, req mealplan.Request) (*mealplan.Response, error)
}

type MealPlanController struct {
	svc MealPlanGenerator
}

func NewMealPlanController(svc MealPlanGenerator) *MealPlanController {
	return &MealPlanController{svc: svc}
}

// HandleGenerate answers POST /api/generate-mealplan.
func (mc *MealPlanController) HandleGenerate(c *fiber.Ctx) error {
	var req mealplan.Request
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid_request", "Invalid request body")
	}

	resp, err := mc.svc.Generate(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, mealplan.ErrInvalidRequest) {
			return errorJSON(c, fiber.StatusBadRequest, "invalid_request", err.Error())
		}
		return errorJSON(c, fiber.StatusInternalServerError, "generation_failed", "Failed to generate meal plan. Please try again.")
	}
	return c.JSON(resp)
}
