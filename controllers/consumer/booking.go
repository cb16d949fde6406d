package consumer

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

// flexID accepts an id sent either as a JSON number or a numeric string.
type flexID uint

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return errors.New("id must be a positive integer")
	}
	*f = flexID(n)
	return nil
}

type bookingInput struct {
	ServiceID     flexID `json:"service_id"`
	ProviderID    flexID `json:"provider_id"`
	RequestedDate string `json:"requested_date"`
}

// CreateBooking books a service for the caller.
func (cc *Controller) CreateBooking(c *fiber.Ctx) error {
	var input bookingInput
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	input.RequestedDate = strings.TrimSpace(input.RequestedDate)
	if input.ServiceID == 0 || input.RequestedDate == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "Missing required fields: service_id or requested_date")
	}
	date, err := models.ParseRequestedDate(input.RequestedDate)
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "requested_date must be YYYY-MM-DD")
	}

	userID, _ := middleware.CurrentUserID(c)
	booking, err := cc.Store.CreateBooking(c.UserContext(), userID, store.BookingInput{
		ServiceID:     uint(input.ServiceID),
		ProviderID:    uint(input.ProviderID),
		RequestedDate: date,
	})
	if err != nil {
		return utils.StoreError(c, err, "Booking already exists")
	}
	if cc.Notifier != nil {
		cc.Notifier.BookingCreated(booking.ID)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Booking created successfully",
		"booking": booking,
	})
}

// GetCurrentBookings returns the caller's pending and confirmed bookings.
func (cc *Controller) GetCurrentBookings(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	bookings, err := cc.Store.CurrentBookings(c.UserContext(), userID)
	if err != nil {
		return utils.StoreError(c, err, "Failed to fetch current bookings")
	}
	return c.JSON(fiber.Map{"success": true, "bookings": bookings})
}

// CancelBooking removes one of the caller's bookings while it is pending.
func (cc *Controller) CancelBooking(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusNotFound, "Booking not found or cannot be canceled")
	}
	userID, _ := middleware.CurrentUserID(c)
	booking, err := cc.Store.CancelBooking(c.UserContext(), userID, bookingID)
	if err != nil {
		return utils.StoreError(c, err, "Booking not found or cannot be canceled")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Booking canceled successfully",
		"booking": booking,
	})
}

func (cc *Controller) GetServiceHistory(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	history, err := cc.Store.ServiceHistory(c.UserContext(), userID)
	if err != nil {
		return utils.StoreError(c, err, "Failed to fetch service history")
	}
	return c.JSON(fiber.Map{"success": true, "history": history})
}
