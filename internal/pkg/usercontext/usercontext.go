package usercontext

import "github.com/gofiber/fiber/v2"

// UserContext represents the principal of a request. The identity provider
// authenticates users upstream; this service only trusts the forwarded id.
type UserContext struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"is_logged_in"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(KeyUserContext).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

// IsLoggedIn checks if the current user is logged in
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// GetUserID returns the current principal id, or "" if anonymous.
func GetUserID(c *fiber.Ctx) string {
	return GetUserContext(c).UserID
}
