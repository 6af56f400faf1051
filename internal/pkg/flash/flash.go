package flash

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// Message types.
const (
	TypeError   = "error"
	TypeSuccess = "success"
)

// Redirect stores a one-shot message in the flash cookie and redirects to
// location with 303.
func Redirect(c *fiber.Ctx, kind, message, location string) error {
	fm := fiber.Map{
		"type":    kind,
		"message": message,
	}
	if kind == TypeError {
		return flash.WithError(c, fm).Redirect(location, fiber.StatusSeeOther)
	}
	return flash.WithSuccess(c, fm).Redirect(location, fiber.StatusSeeOther)
}
