package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/handlers"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/middleware"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/utils"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB — thumbnails and icons only
	})

	// 🔐 GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Learner{},
		&models.Challenge{},
		&models.ChallengeProgress{},
		&models.Submission{},
		&models.Course{},
		&models.Lesson{},
		&models.CourseEnrollment{},
		&models.LessonCompletion{},
		&models.LearningPath{},
		&models.PathModule{},
		&models.LearningPathEnrollment{},
		&models.AccountLedger{},
		&models.RewardHistoryEntry{},
		&models.XPLogEntry{},
		&models.ActivityDay{},
		&models.BadgeType{},
		&models.LearnerBadge{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	notifier := services.NewRewardNotifier(
		os.Getenv("NOTIFICATION_SERVICE_URL"),
		os.Getenv("LABS_SERVICE_TOKEN"),
	)

	ledgerService := services.NewLedgerService(db, notifier)
	ledgerService.Badges.Notifier = notifier
	submissionService := services.NewSubmissionService(db, ledgerService)
	progressService := services.NewProgressService(db)
	streakService := services.NewStreakService(db)
	contentService := services.NewContentService(db)

	if err := ledgerService.Badges.SeedBadgeTypes(); err != nil {
		log.Fatal("failed to seed badge types:", err)
	}

	profileServiceURL := os.Getenv("PROFILE_SERVICE_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SERVICE_URL environment variable not set")
	}
	serviceToken := os.Getenv("LABS_SERVICE_TOKEN")
	if serviceToken == "" {
		log.Fatal("LABS_SERVICE_TOKEN environment variable not set")
	}

	learnerSync := workers.NewLearnerSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", serviceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	learnerSync.Start(ctx)
	go workers.PollPathProgress(ctx, db, progressService, 10*time.Minute)

	contentService.StartPublishScheduler()

	handlers.SetupChallengeRoutes(app, submissionService)
	handlers.SetupCourseRoutes(app, progressService)
	handlers.SetupDashboardRoutes(app, ledgerService, streakService, ledgerService.Badges)
	handlers.SetupAdminRoutes(app, contentService, ledgerService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Learner Sync Worker running")
	log.Println("✅ Path progress sync running (every 10m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
