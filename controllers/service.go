package controllers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/home-services/models"
	"github.com/meinhoongagan/home-services/store"
	"github.com/meinhoongagan/home-services/utils"
)

// PublicController serves the unauthenticated pages.
type PublicController struct {
	Store store.Store
}

// GetCategories lists service categories for the listing form.
func (pc *PublicController) GetCategories(c *fiber.Ctx) error {
	categories, err := pc.Store.ListCategories(c.UserContext())
	if err != nil {
		return utils.StoreError(c, err, "Error fetching service categories")
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GetAllServices returns all services with their providers
func (pc *PublicController) GetAllServices(c *fiber.Ctx) error {
	services, err := pc.Store.Catalog(c.UserContext())
	if err != nil {
		return utils.StoreError(c, err, "Internal server error")
	}
	return c.JSON(fiber.Map{"services": services})
}

// Contact stores a message from the contact form.
func (pc *PublicController) Contact(c *fiber.Ctx) error {
	msg := new(models.ContactMessage)
	if err := c.BodyParser(msg); err != nil {
		return utils.Fail(c, fiber.StatusBadRequest, "Cannot parse JSON")
	}
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Message = strings.TrimSpace(msg.Message)
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return utils.Fail(c, fiber.StatusBadRequest, "All fields are required.")
	}
	msg.ID = 0

	if err := pc.Store.CreateContactMessage(c.UserContext(), msg); err != nil {
		return utils.StoreError(c, err, "Internal server error")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Message saved successfully!",
		"data":    msg,
	})
}

// Health reports whether the store is reachable.
func (pc *PublicController) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := pc.Store.Ping(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
