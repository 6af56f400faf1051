package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/MealPilot/internal/pkg/config"
)

// Plan is a subscription tier identifier.
type Plan string

const (
	PlanWeek  Plan = "week"
	PlanMonth Plan = "month"
	PlanYear  Plan = "year"
)

// ParsePlan normalizes a plan tag and reports whether it is known.
func ParsePlan(raw string) (Plan, bool) {
	switch p := Plan(strings.ToLower(strings.TrimSpace(raw))); p {
	case PlanWeek, PlanMonth, PlanYear:
		return p, true
	default:
		return "", false
	}
}

// PlanInfo is a catalog entry shown on the pricing page.
type PlanInfo struct {
	ID          Plan            `json:"id"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Interval    string          `json:"interval"`
	Description string          `json:"description"`
	Features    []string        `json:"features"`
	Popular     bool            `json:"isPopular"`
}

// Catalog lists the available plans in display order.
func Catalog() []PlanInfo {
	return []PlanInfo{
		{
			ID:          PlanWeek,
			Name:        "Weekly Plan",
			Amount:      decimal.RequireFromString("9.99"),
			Currency:    "USD",
			Interval:    string(PlanWeek),
			Description: "Great to start before committing",
			Features:    []string{"Unlimited AI Meal Plans", "AI Nutrition insights", "Cancel anytime"},
		},
		{
			ID:          PlanMonth,
			Name:        "Monthly Plan",
			Amount:      decimal.RequireFromString("39.99"),
			Currency:    "USD",
			Interval:    string(PlanMonth),
			Description: "Perfect for ongoing, month-to-month meal planning and features",
			Features:    []string{"Unlimited AI Meal Plans", "Priority AI support", "Cancel anytime"},
			Popular:     true,
		},
		{
			ID:          PlanYear,
			Name:        "Yearly Plan",
			Amount:      decimal.RequireFromString("299.99"),
			Currency:    "USD",
			Interval:    string(PlanYear),
			Description: "Best value for those committed to improving their diet long-term",
			Features:    []string{"Unlimited AI Meal Plans", "All premium features", "Cancel anytime"},
		},
	}
}

// PriceIDs maps plans to Stripe price ids.
type PriceIDs map[Plan]string

// PriceIDsFromConfig reads the configured Stripe prices.
func PriceIDsFromConfig(cfg config.Stripe) PriceIDs {
	return PriceIDs{
		PlanWeek:  cfg.PriceWeekly,
		PlanMonth: cfg.PriceMonthly,
		PlanYear:  cfg.PriceYearly,
	}
}

// Lookup returns the price id for plan, or "" when unset.
func (p PriceIDs) Lookup(plan Plan) string {
	return strings.TrimSpace(p[plan])
}
