package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sunriver-travel/nilecms/internal/config"
	"github.com/sunriver-travel/nilecms/internal/services"
	"github.com/sunriver-travel/nilecms/internal/types"
)

// Roles known to the dashboard.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
)

// RequireRoles validates the request's session cookie against the Authorizer
// and requires one of the given roles. The resolved user lands in
// c.Locals("user") and its id in c.Locals("userID") for the handlers'
// createdBy/updatedBy bookkeeping.
func RequireRoles(cfg *config.Config, errorType string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The Authorizer client needs a redirect URL, which is only known
		// once a request arrives, so initialization is lazy.
		if !services.IsAuthorizerInitialized() {
			if err := services.InitAuthorizer(cfg, c.Protocol(), c.Hostname()); err != nil {
				return &types.APIError{
					Code:    fiber.StatusServiceUnavailable,
					Message: fmt.Sprintf("Authorizer unavailable: %v", err),
					Type:    errorType,
				}
			}
		}

		session := c.Cookies("cookie_session")
		if session == "" {
			return &types.APIError{
				Code:    fiber.StatusUnauthorized,
				Message: "Session cookie \"cookie_session\" not found",
				Type:    errorType,
			}
		}

		data, err := services.ValidateSession(session, roles)
		if err != nil {
			return &types.APIError{
				Code:    fiber.StatusForbidden,
				Message: fmt.Sprintf("Invalid session: %v", err),
				Type:    errorType,
			}
		}

		if user, ok := data["user"]; ok {
			c.Locals("user", user)
			if m, ok := user.(map[string]interface{}); ok {
				if id, ok := m["id"].(string); ok {
					c.Locals("userID", id)
				}
			}
		}

		return c.Next()
	}
}
