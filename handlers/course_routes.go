// handlers/course_routes.go
package handlers

import (
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/middleware"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCourseRoutes(app *fiber.App, progress *services.ProgressService) {
	courses := app.Group("/courses", middleware.UserContextMiddleware())

	courses.Get("/", func(c *fiber.Ctx) error {
		var list []models.Course
		if err := progress.DB.
			Where("status = ?", models.ContentStatusPublished).
			Order("created_at DESC").
			Find(&list).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list courses",
				"cause": err.Error(),
			})
		}
		return c.JSON(list)
	})

	courses.Get("/enrollments", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		enrollments, err := progress.GetEnrollments(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list enrollments",
				"cause": err.Error(),
			})
		}
		return c.JSON(enrollments)
	})

	courses.Post("/:id/enroll", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		state, err := progress.Enroll(userID, c.Params("id"))
		if err != nil {
			return failJSON(c, err)
		}
		if state.AlreadyEnrolled {
			return c.JSON(fiber.Map{
				"message":    "already enrolled",
				"enrollment": state,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":    "enrolled",
			"enrollment": state,
		})
	})

	courses.Post("/:id/lessons/:lessonId/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		state, err := progress.CompleteLesson(userID, c.Params("id"), c.Params("lessonId"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(state)
	})

	paths := app.Group("/paths", middleware.UserContextMiddleware())

	paths.Get("/", func(c *fiber.Ctx) error {
		var list []models.LearningPath
		if err := progress.DB.
			Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
			Where("status = ?", models.ContentStatusPublished).
			Order("created_at DESC").
			Find(&list).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to list paths",
				"cause": err.Error(),
			})
		}
		return c.JSON(list)
	})

	paths.Post("/:id/enroll", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		state, err := progress.EnrollPath(userID, c.Params("id"))
		if err != nil {
			return failJSON(c, err)
		}
		if state.AlreadyEnrolled {
			return c.JSON(fiber.Map{
				"message":    "already enrolled",
				"enrollment": state,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message":    "enrolled",
			"enrollment": state,
		})
	})

	paths.Post("/:id/sync", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		state, err := progress.SyncPathProgress(userID, c.Params("id"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(state)
	})

	paths.Get("/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		enrollment, err := progress.GetPathEnrollment(userID, c.Params("id"))
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(enrollment)
	})
}
