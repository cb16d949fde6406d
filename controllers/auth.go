package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/meinhoongagan/home-services/logger"
	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/redis"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

// LoginLimiter caps login attempts per client.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) bool
}

// AuthController handles accounts, sessions and role selection.
type AuthController struct {
	Store    store.Store
	Revoker  redis.TokenRevoker
	Limiter  LoginLimiter
	Secret   string
	TokenTTL time.Duration
}

type registerInput struct {
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Name     string       `json:"name"`
	Phone    string       `json:"phone"`
	Address  string       `json:"address"`
	City     string       `json:"city"`
	Role     *models.Role `json:"role"`
}

// Register handles user registration
func (ac *AuthController) Register(c *fiber.Ctx) error {
	input := new(registerInput)
	if err := c.BodyParser(input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	input.Email = strings.TrimSpace(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" || input.Password == "" || input.Name == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "Email, password and name are required")
	}
	if input.Role != nil && !input.Role.Valid() {
		return utils.Fail(c, fiber.StatusBadRequest, "Role must be taker or provider")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		logger.Log.Error("hash password", zap.Error(err))
		return utils.Fail(c, fiber.StatusInternalServerError, "Error registering user")
	}

	user := &models.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		City:         strings.TrimSpace(input.City),
		Role:         input.Role,
	}
	if err := ac.Store.CreateUser(c.UserContext(), user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return utils.Fail(c, fiber.StatusConflict, "User with this email already exists")
		}
		return utils.StoreError(c, err, "Error registering user")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
	})
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password are indistinguishable to the caller.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if ac.Limiter != nil && !ac.Limiter.Allow(c.UserContext(), "login:"+c.IP()) {
		return utils.Fail(c, fiber.StatusTooManyRequests, "Too many login attempts, try again later")
	}

	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, err := ac.Store.GetUserByEmail(c.UserContext(), input.Email)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return utils.StoreError(c, err, "Error logging in user")
	}
	if user == nil || !utils.CheckPassword(user.PasswordHash, input.Password) {
		return utils.Fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, ac.Secret, ac.TokenTTL)
	if err != nil {
		logger.Log.Error("sign token", zap.Error(err))
		return utils.Fail(c, fiber.StatusInternalServerError, "Error logging in user")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"userId":  user.ID,
		"role":    user.Role,
	})
}

// Logout revokes the presented token until it expires.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	tokenID, expiry := middleware.CurrentToken(c)
	if tokenID == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "Token cannot be revoked")
	}
	if err := ac.Revoker.Revoke(c.UserContext(), tokenID, time.Until(expiry)); err != nil {
		logger.Log.Error("revoke token", zap.Error(err))
		return utils.Fail(c, fiber.StatusInternalServerError, "Failed to log out")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Logged out"})
}

// Me returns the caller's profile.
func (ac *AuthController) Me(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	user, err := ac.Store.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return utils.StoreError(c, err, "User not found")
	}
	return c.JSON(fiber.Map{"success": true, "user": user})
}

// SelectRole sets which side of the marketplace the caller acts on.
func (ac *AuthController) SelectRole(c *fiber.Ctx) error {
	var input struct {
		Role models.Role `json:"role"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if !input.Role.Valid() {
		return utils.Fail(c, fiber.StatusBadRequest, "Role must be taker or provider")
	}

	userID, _ := middleware.CurrentUserID(c)
	user, err := ac.Store.SetUserRole(c.UserContext(), userID, input.Role)
	if err != nil {
		return utils.StoreError(c, err, "User not found")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Role updated successfully",
		"user":    user,
	})
}
