// handlers/admin_routes.go
package handlers

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/middleware"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func SetupAdminRoutes(app *fiber.App, content *services.ContentService, ledger *services.LedgerService) {
	admin := app.Group("/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	admin.Post("/badges", func(c *fiber.Ctx) error {
		var req services.CreateBadgeTypeInput
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
		badge, err := ledger.Badges.CreateBadgeType(&req)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(badge)
	})

	admin.Post("/badges/:id/icon", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("icon")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "icon file missing",
				"cause": err.Error(),
			})
		}
		key := fmt.Sprintf("badges/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadAsset(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "upload failed",
				"cause": err.Error(),
			})
		}
		prev, err := ledger.Badges.SetIcon(c.Params("id"), url)
		if err != nil {
			return failJSON(c, err)
		}
		if err := utils.DeleteAssetURL(prev); err != nil {
			log.Printf("⚠️ failed to delete replaced icon: %v", err)
		}
		return c.JSON(fiber.Map{"icon_url": url})
	})

	admin.Post("/labs", func(c *fiber.Ctx) error {
		var req services.CreateChallengeInput
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
		challenge, err := content.CreateChallenge(&req)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(challenge)
	})

	admin.Post("/courses", func(c *fiber.Ctx) error {
		var req services.CreateCourseInput
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
		course, err := content.CreateCourse(&req)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(course)
	})

	admin.Post("/paths", func(c *fiber.Ctx) error {
		var req services.CreatePathInput
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
		path, err := content.CreatePath(&req)
		if err != nil {
			return failJSON(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(path)
	})

	admin.Post("/courses/:id/thumbnail", func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("thumbnail")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "thumbnail file missing",
				"cause": err.Error(),
			})
		}
		key := fmt.Sprintf("thumbnails/%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
		url, err := utils.UploadAsset(fileHeader, key)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "upload failed",
				"cause": err.Error(),
			})
		}
		prev, err := content.SetThumbnail(&models.Course{}, c.Params("id"), url)
		if err != nil {
			return failJSON(c, err)
		}
		if err := utils.DeleteAssetURL(prev); err != nil {
			log.Printf("⚠️ failed to delete replaced thumbnail: %v", err)
		}
		return c.JSON(fiber.Map{"thumbnail_url": url})
	})

	// Manual grant, mirrored from the learner-facing award path
	admin.Post("/rewards/grant", func(c *fiber.Ctx) error {
		var req struct {
			UserID string `json:"user_id" validate:"required,uuid"`
			Points int64  `json:"points" validate:"min=0"`
			XP     int64  `json:"xp" validate:"min=0"`
			Reason string `json:"reason" validate:"required,max=255"`
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

		res, err := ledger.Award(req.UserID, req.Points, req.XP, req.Reason)
		if err != nil {
			return failJSON(c, err)
		}
		return c.JSON(fiber.Map{
			"message": "reward granted",
			"user_id": req.UserID,
			"ledger":  res,
		})
	})
}
