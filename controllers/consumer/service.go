package consumer

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

type bookingNotifier interface {
	BookingCreated(bookingID uuid.UUID)
}

// Controller serves the taker side: browsing and bookings.
type Controller struct {
	Store    store.Store
	Notifier bookingNotifier
}

// GetServices returns every (service, provider) offering.
func (cc *Controller) GetServices(c *fiber.Ctx) error {
	services, err := cc.Store.Catalog(c.UserContext())
	if err != nil {
		return utils.StoreError(c, err, "Failed to fetch services")
	}
	return c.JSON(fiber.Map{"services": services})
}

// GetServiceDetails returns one service with every provider offering it.
func (cc *Controller) GetServiceDetails(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}
	offerings, err := cc.Store.ServiceOfferings(c.UserContext(), uint(id))
	if err != nil {
		return utils.StoreError(c, err, "Service not found")
	}
	return c.JSON(fiber.Map{
		"service":   offerings[0],
		"providers": offerings,
	})
}
