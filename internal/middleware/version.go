package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// APIVersion parses the X-Api-Version header and stores it in the request
// context for handlers that need to branch on it.
func APIVersion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get("X-Api-Version", "1.0.0")

		if version == "1.0" {
			version = "1.0.0"
		}

		c.Locals("apiVersion", version)

		return c.Next()
	}
}
