package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/home-services/controllers"
)

// SetupPublicRoutes configures the unauthenticated pages
func SetupPublicRoutes(api fiber.Router, public *controllers.PublicController) {
	api.Get("/service-categories", public.GetCategories)
	api.Get("/services", public.GetAllServices)
	api.Post("/contact", public.Contact)
}
