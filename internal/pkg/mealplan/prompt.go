package mealplan

import (
	"fmt"
	"strings"
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// buildPrompt renders the nutritionist instruction for req.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional nutritionist. Create a %d-day meal plan for an individual following a %s diet aiming for %d calories per day.\n\n",
		req.Days, req.DietType, req.Calories)
	fmt.Fprintf(&b, "Allergies or restrictions: %s.\n", orDefault(req.Allergies, "none"))
	fmt.Fprintf(&b, "Preferred cuisine: %s.\n", orDefault(req.Cuisines, "no preference"))
	fmt.Fprintf(&b, "Snacks included: %s.\n\n", yesNo(req.Snacks))

	b.WriteString("For each day, provide:\n  - Breakfast\n  - Lunch\n  - Dinner\n")
	if req.Snacks {
		b.WriteString("  - Snacks\n")
	}
	b.WriteString("\nUse simple ingredients and provide brief instructions. Include approximate calorie counts for each meal.\n\n")
	b.WriteString("Structure the response as a JSON object where each day is a key, and each meal (breakfast, lunch, dinner, snacks) is a sub-key. Example:\n\n")
	b.WriteString(`{
  "Monday": {
    "Breakfast": "Oatmeal with fruits - 350 calories",
    "Lunch": "Grilled chicken salad - 500 calories",
    "Dinner": "Steamed vegetables with quinoa - 600 calories",
    "Snacks": "Greek yogurt - 150 calories"
  }
}`)
	b.WriteString("\n\nReturn just the json with no extra commentaries and no backticks.\n")
	return b.String()
}
