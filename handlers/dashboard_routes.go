// handlers/dashboard_routes.go
package handlers

import (
	"strconv"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/middleware"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupDashboardRoutes(app *fiber.App, ledger *services.LedgerService, streaks *services.StreakService, badges *services.BadgeService) {
	user := app.Group("/user", middleware.UserContextMiddleware())

	user.Get("/streaks", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		summary, err := streaks.ComputeStreaks(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to compute streaks",
				"cause": err.Error(),
			})
		}
		return c.JSON(summary)
	})

	user.Get("/ledger", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		current, err := ledger.GetLedger(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch ledger",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"total_points": current.TotalPoints,
			"total_xp":     current.TotalXP,
			"level":        current.Level,
		})
	})

	user.Get("/ledger/history", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		history, err := ledger.GetHistory(userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get history",
				"cause": err.Error(),
			})
		}
		return c.JSON(history)
	})

	user.Get("/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		awarded, err := badges.GetBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}
		return c.JSON(awarded)
	})

	user.Get("/profile", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		var learner models.Learner
		if err := ledger.DB.Where("external_user_id = ?", userID).First(&learner).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "learner not synced yet",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch profile",
				"cause": err.Error(),
			})
		}
		return c.JSON(learner)
	})
}
