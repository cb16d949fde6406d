package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

type statusNotifier interface {
	BookingStatusChanged(bookingID uuid.UUID)
}

// Controller serves the provider dashboard: listings and jobs.
type Controller struct {
	Store    store.Store
	Notifier statusNotifier
}

// AddService lists a service for the caller, creating the provider profile
// and the shared service row on first use.
func (sc *Controller) AddService(c *fiber.Ctx) error {
	input := new(store.AddServiceInput)
	if err := c.BodyParser(input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	userID, _ := middleware.CurrentUserID(c)
	link, err := sc.Store.AddService(c.UserContext(), userID, *input)
	if err != nil {
		return utils.StoreError(c, err, "Category not found")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":          true,
		"message":          "Service added successfully!",
		"provider_service": link,
	})
}

// GetServices returns the caller's listings; none is an empty list.
func (sc *Controller) GetServices(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	services, err := sc.Store.ListProviderServices(c.UserContext(), userID)
	if err != nil {
		return utils.StoreError(c, err, "Error fetching services")
	}
	return c.JSON(fiber.Map{"success": true, "services": services})
}

func (sc *Controller) GetService(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}
	userID, _ := middleware.CurrentUserID(c)
	service, err := sc.Store.GetProviderService(c.UserContext(), userID, id)
	if err != nil {
		return utils.StoreError(c, err, "Service not found")
	}
	return c.JSON(fiber.Map{"success": true, "service": service})
}

// EditService updates one of the caller's listings.
func (sc *Controller) EditService(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}
	input := new(store.EditServiceInput)
	if err := c.BodyParser(input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}

	userID, _ := middleware.CurrentUserID(c)
	service, err := sc.Store.EditProviderService(c.UserContext(), userID, id, *input)
	if err != nil {
		return utils.StoreError(c, err, "Service not found or not authorized")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Service updated successfully",
		"service": service,
	})
}

func (sc *Controller) DeleteService(c *fiber.Ctx) error {
	id, ok := listingID(c)
	if !ok {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}
	userID, _ := middleware.CurrentUserID(c)
	if err := sc.Store.DeleteProviderService(c.UserContext(), userID, id); err != nil {
		return utils.StoreError(c, err, "Service not found or not authorized")
	}
	return c.JSON(fiber.Map{"success": true, "message": "Service deleted successfully"})
}

func listingID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
