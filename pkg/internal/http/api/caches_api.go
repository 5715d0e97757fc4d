package api

import (
	"git.solsynth.dev/hypernet/msgdict/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
)

func invalidateDisplayRecipient(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("recipientId", 0)
	if id <= 0 {
		return fiber.NewError(fiber.StatusBadRequest, "recipient id must be a positive integer")
	}

	if err := services.Recipients.InvalidateDisplayRecipient(c.UserContext(), uint(id)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}

func invalidateRealmFilters(c *fiber.Ctx) error {
	if err := services.Filters.InvalidateRealmFilters(c.UserContext()); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.SendStatus(fiber.StatusOK)
}
