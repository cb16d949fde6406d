package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meinhoongagan/home-services/middleware"
	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/utils"
)

// GetCurrentJobs returns pending and confirmed bookings for the caller.
func (sc *Controller) GetCurrentJobs(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	jobs, err := sc.Store.CurrentJobs(c.UserContext(), userID)
	if err != nil {
		return utils.StoreError(c, err, "Error fetching current jobs")
	}
	return c.JSON(fiber.Map{"success": true, "jobs": jobs})
}

func (sc *Controller) GetCompletedJobs(c *fiber.Ctx) error {
	userID, _ := middleware.CurrentUserID(c)
	jobs, err := sc.Store.CompletedJobs(c.UserContext(), userID)
	if err != nil {
		return utils.StoreError(c, err, "Error fetching completed jobs")
	}
	return c.JSON(fiber.Map{"success": true, "jobs": jobs})
}

// UpdateJobStatus moves one of the caller's bookings to a new status.
func (sc *Controller) UpdateJobStatus(c *fiber.Ctx) error {
	bookingID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid booking ID")
	}
	var input struct {
		Status models.BookingStatus `json:"status"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if !input.Status.Valid() {
		return utils.Fail(c, fiber.StatusBadRequest, "Invalid status value")
	}

	userID, _ := middleware.CurrentUserID(c)
	booking, err := sc.Store.UpdateBookingStatus(c.UserContext(), userID, bookingID, input.Status)
	if err != nil {
		return utils.StoreError(c, err, "Booking not found")
	}
	if sc.Notifier != nil {
		sc.Notifier.BookingStatusChanged(booking.ID)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Job status updated successfully",
		"booking": booking,
	})
}
