package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

// RequireRole re-reads the caller's stored role, so a role switch takes
// effect without a new token. Must run after Protected.
func RequireRole(st store.Store, role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := CurrentUserID(c)
		if !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "Access denied. No token provided.")
		}

		user, err := st.GetUserByID(c.UserContext(), userID)
		if errors.Is(err, store.ErrNotFound) {
			return utils.Fail(c, fiber.StatusUnauthorized, "User not found")
		}
		if err != nil {
			return utils.StoreError(c, err, "Failed to verify role")
		}

		if !user.HasRole(role) {
			if role == models.RoleProvider {
				return utils.Fail(c, fiber.StatusForbidden, "Access denied. Providers only.")
			}
			return utils.Fail(c, fiber.StatusForbidden, "You don't have the required role to perform this action")
		}
		return c.Next()
	}
}
