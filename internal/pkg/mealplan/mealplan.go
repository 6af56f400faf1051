// Package mealplan generates meal plans through an LLM chat-completions API
// and serves repeated requests from the cache.
package mealplan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest   = errors.New("mealplan: invalid request")
	ErrGenerationFailed = errors.New("mealplan: generation failed")
	ErrInvalidResponse  = errors.New("mealplan: invalid model response")
)

// DailyMeals is one day of a plan.
type DailyMeals struct {
	Breakfast string `json:"Breakfast,omitempty"`
	Lunch     string `json:"Lunch,omitempty"`
	Dinner    string `json:"Dinner,omitempty"`
	Snacks    string `json:"Snacks,omitempty"`
}

// MealPlan maps day names to meals.
type MealPlan map[string]DailyMeals

// ParseMealPlan extracts the JSON object from a model reply. Markdown code
// fences and surrounding prose are tolerated.
func ParseMealPlan(content string) (MealPlan, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrInvalidResponse)
	}

	var plan MealPlan
	if err := json.Unmarshal([]byte(content[start:end+1]), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidResponse)
	}
	return plan, nil
}
