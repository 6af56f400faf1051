package constants

// Route constants shared by redirects, checkout URLs and the router.
const (
	PublicRoute    = "/"
	SignUpRoute    = "/sign-up"
	SubscribeRoute = "/subscribe"
	MealPlanRoute  = "/mealplan"
	WebhookRoute   = "/api/webhook"
	// CheckoutSuccessQuery is appended to the public domain; the processor
	// substitutes the placeholder.
	CheckoutSuccessQuery = "?session_id={CHECKOUT_SESSION_ID}"
)
