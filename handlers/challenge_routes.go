// handlers/challenge_routes.go
package handlers

import (
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/middleware"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, submissions *services.SubmissionService) {
	labs := app.Group("/labs", middleware.UserContextMiddleware())

	labs.Get("/", func(c *fiber.Ctx) error {
		var challenges []models.Challenge
		q := submissions.DB.Where("status = ?", models.ContentStatusPublished)
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}
		if err := q.Order("created_at DESC").Find(&challenges).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list labs",
				"cause": err.Error(),
			})
		}
		return c.JSON(challenges)
	})

	// Stamps started_at; the timed bonus decays from here
	labs.Post("/:id/start", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		prog, err := submissions.StartChallenge(userID, c.Params("id"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(prog)
	})

	labs.Post("/:id/submit", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var req struct {
			Answer string `json:"answer" validate:"required,max=1024"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		if err := utils.Validate.Struct(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "validation failed",
				"cause": err.Error(),
			})
		}

		result, err := submissions.Evaluate(userID, c.Params("id"), req.Answer)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(result)
	})

	labs.Get("/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		prog, err := submissions.GetProgress(userID, c.Params("id"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(prog)
	})
}
