package mealplan

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
)

const (
	DefaultCalories = 2000
	DefaultDays     = 7
)

// Request holds every input that affects a generated plan.
type Request struct {
	DietType  string `json:"dietType" validate:"required,max=64"`
	Calories  int    `json:"calories" validate:"gte=800,lte=10000"`
	Allergies string `json:"allergies" validate:"max=500"`
	Cuisines  string `json:"cuisines" validate:"max=200"`
	Snacks    bool   `json:"snacks"`
	Days      int    `json:"days" validate:"gte=1,lte=14"`
}

// Normalize trims and lowercases free-text fields and fills defaults so that
// equivalent requests share a cache key. The order of listed allergies and
// cuisines is kept.
func (r *Request) Normalize() {
	r.DietType = normalizeText(r.DietType)
	r.Allergies = normalizeText(r.Allergies)
	r.Cuisines = normalizeText(r.Cuisines)
	if r.Calories == 0 {
		r.Calories = DefaultCalories
	}
	if r.Days == 0 {
		r.Days = DefaultDays
	}
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func (r *Request) Validate() error {
	v := validator.New()

	return v.Struct(r)
}

// CacheKey is the deterministic key of the request's result.
func (r Request) CacheKey() string {
	return cache.Key("mealplan", r.DietType, r.Calories, r.Allergies, r.Cuisines, r.Snacks, r.Days)
}
