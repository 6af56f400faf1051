package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuelReschke/MealPilot/internal/pkg/constants"
	"github.com/ManuelReschke/MealPilot/internal/pkg/usercontext"
)

// RequireAuth ensures a signed-in principal; redirects to /sign-up if missing.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Redirect(constants.SignUpRoute, fiber.StatusSeeOther)
	}
	return c.Next()
}

// RequireAPIAuth ensures a signed-in principal for API routes and returns JSON 401 instead of redirect.
func RequireAPIAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// AdminAuth protects operator endpoints with HTTP basic auth checked against a
// bcrypt hash. An empty hash rejects every request.
func AdminAuth(user, passwordHash string) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm: "MealPilot Admin",
		Authorizer: func(u, p string) bool {
			if passwordHash == "" || u != user {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="MealPilot Admin"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "admin credentials required",
			})
		},
	})
}
