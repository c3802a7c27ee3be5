package handlers

import (
	"errors"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"

	"github.com/gofiber/fiber/v2"
)

// failJSON maps service errors onto HTTP statuses. Taxonomy errors are
// expected outcomes; anything else is a storage failure.
func failJSON(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrNotEnrolled):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrAttemptsExhausted):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidArgument):
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
