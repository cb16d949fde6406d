package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/redis"
	"github.com/meinhoongagan/home-services/utils"
)

const (
	localUserID      = "userID"
	localTokenID     = "tokenID"
	localTokenExpiry = "tokenExpiry"
)

// Protected verifies the bearer token. A missing or malformed header is
// 401; a bad signature, an expired token or a logged-out token is 403.
func Protected(secret string, revoker redis.TokenRevoker) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ErrorHandler:  jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return utils.Fail(c, fiber.StatusForbidden, "Invalid token")
			}
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return utils.Fail(c, fiber.StatusForbidden, "Invalid token claims")
			}
			userID, err := utils.ExtractUserID(claims)
			if err != nil {
				logger.Log.Debug("user id extraction failed", zap.Error(err))
				return utils.Fail(c, fiber.StatusForbidden, "Invalid user ID in token")
			}

			tokenID := utils.TokenID(claims)
			if tokenID != "" && revoker != nil {
				revoked, err := revoker.IsRevoked(c.UserContext(), tokenID)
				if err != nil {
					logger.Log.Error("revocation check failed", zap.Error(err))
					return utils.Fail(c, fiber.StatusServiceUnavailable, "Unable to verify token")
				}
				if revoked {
					return utils.Fail(c, fiber.StatusForbidden, "Token has been revoked")
				}
			}

			c.Locals(localUserID, userID)
			c.Locals(localTokenID, tokenID)
			c.Locals(localTokenExpiry, utils.TokenExpiry(claims))
			return c.Next()
		},
	})
}

// CurrentUserID returns the authenticated user set by Protected.
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(localUserID).(uint)
	return id, ok && id != 0
}

// CurrentToken returns the token id and expiry set by Protected.
func CurrentToken(c *fiber.Ctx) (string, time.Time) {
	id, _ := c.Locals(localTokenID).(string)
	exp, _ := c.Locals(localTokenExpiry).(time.Time)
	return id, exp
}

func jwtError(c *fiber.Ctx, err error) error {
	if strings.EqualFold(err.Error(), "missing or malformed JWT") {
		return utils.Fail(c, fiber.StatusUnauthorized, "Access denied. No token provided.")
	}
	logger.Log.Debug("jwt rejected", zap.Error(err))
	return utils.Fail(c, fiber.StatusForbidden, "Invalid or expired token")
}
