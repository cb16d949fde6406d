package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/home-services/controllers/consumer"
)

// SetupConsumerRoutes configures the taker routes
func SetupConsumerRoutes(api fiber.Router, protected fiber.Handler, deps Deps) {
	cc := &consumer.Controller{Store: deps.Store, Notifier: deps.Notifier}

	taker := api.Group("/taker")
	taker.Get("/services", cc.GetServices)
	taker.Get("/service/:id", cc.GetServiceDetails)

	taker.Post("/bookings", protected, cc.CreateBooking)
	taker.Get("/current-bookings", protected, cc.GetCurrentBookings)
	taker.Delete("/cancel-booking/:id", protected, cc.CancelBooking)
	taker.Get("/service-history", protected, cc.GetServiceHistory)
}
