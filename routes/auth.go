package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/home-services/controllers"
)

// SetupAuthRoutes configures all authentication related routes
func SetupAuthRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	auth := &controllers.AuthController{
		Store:    deps.Store,
		Revoker:  deps.Revoker,
		Limiter:  deps.Limiter,
		Secret:   deps.JWTSecret,
		TokenTTL: deps.JWTTTL,
	}

	api.Post("/register", auth.Register)
	api.Post("/login", auth.Login)

	api.Post("/logout", protected, auth.Logout)
	api.Get("/me", protected, auth.Me)
	api.Post("/select-role", protected, auth.SelectRole)
}
