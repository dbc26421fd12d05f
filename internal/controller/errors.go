package controller

import (
	"errors"

	"leadcollector_backend/internal/service"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto HTTP responses. Unknown errors are
// reported as 500 without leaking internals.
func respondError(c *fiber.Ctx, err error) error {
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound.Error(),
		})
	}

	var validation *service.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validation.Error(),
		})
	}

	var conflict *service.StateConflictError
	if errors.As(err, &conflict) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": conflict.Error(),
		})
	}

	var noRecipients *service.NoRecipientsError
	if errors.As(err, &noRecipients) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": noRecipients.Error(),
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// paramID parses a numeric path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
