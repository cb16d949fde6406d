package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/home-services/controllers/service"
	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/models"
)

// SetupServiceRoutes configures the provider dashboard routes
func SetupServiceRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	sc := &service.Controller{Store: deps.Store, Notifier: deps.Notifier}

	api.Post("/add-service", protected, middleware.RequireRole(deps.Store, models.RoleProvider), sc.AddService)

	provider := api.Group("/provider", protected)
	provider.Get("/services", sc.GetServices)
	provider.Get("/service/:id", sc.GetService)
	provider.Put("/edit-service/:id", sc.EditService)
	provider.Delete("/delete-service/:id", sc.DeleteService)
	provider.Get("/current-jobs", sc.GetCurrentJobs)
	provider.Get("/completed-jobs", sc.GetCompletedJobs)
	provider.Put("/update-job-status/:id", sc.UpdateJobStatus)
}
