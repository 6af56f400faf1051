package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/MealPilot/internal/pkg/usercontext"
)

// EmailHeader optionally carries the principal's email, set by the same proxy.
const EmailHeader = "X-Authenticated-Email"

// UserContextMiddleware sets up the user context for every request from the
// principal header set by the authenticating proxy. Requests without it are
// anonymous.
func UserContextMiddleware(principalHeader string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(principalHeader))
		userCtx := usercontext.UserContext{
			UserID:     userID,
			Email:      strings.TrimSpace(c.Get(EmailHeader)),
			IsLoggedIn: userID != "",
		}
		c.Locals(usercontext.KeyUserContext, userCtx)
		c.Locals(usercontext.KeyUserID, userID)
		return c.Next()
	}
}
