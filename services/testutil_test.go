package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory SQLite database with the full schema.
// The single connection keeps the memory database alive and serializes
// transactions the way the row locks do on Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

func seedLearner(t *testing.T, db *gorm.DB, externalUserID string) *models.Learner {
	t.Helper()
	learner := &models.Learner{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Username:       externalUserID,
		Email:          externalUserID + "@example.com",
	}
	require.NoError(t, db.Create(learner).Error)
	return learner
}

func seedChallenge(t *testing.T, db *gorm.DB, ch *models.Challenge) *models.Challenge {
	t.Helper()
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if ch.Slug == "" {
		ch.Slug = "lab-" + ch.ID[:8]
	}
	if ch.Title == "" {
		ch.Title = "Test Lab"
	}
	if ch.Status == "" {
		ch.Status = models.ContentStatusPublished
	}
	require.NoError(t, db.Create(ch).Error)
	return ch
}

func seedCourse(t *testing.T, db *gorm.DB, lessonCount int) (*models.Course, []models.Lesson) {
	t.Helper()
	course := &models.Course{
		ID:     uuid.NewString(),
		Slug:   "course-" + uuid.NewString()[:8],
		Title:  "Test Course",
		Status: models.ContentStatusPublished,
	}
	require.NoError(t, db.Create(course).Error)

	lessons := make([]models.Lesson, 0, lessonCount)
	for i := 0; i < lessonCount; i++ {
		lesson := models.Lesson{
			ID:       uuid.NewString(),
			CourseID: course.ID,
			Title:    fmt.Sprintf("Lesson %d", i+1),
			Position: i,
		}
		require.NoError(t, db.Create(&lesson).Error)
		lessons = append(lessons, lesson)
	}
	return course, lessons
}

// seedSolve inserts a correct submission directly, for streak derivation.
func seedSolve(t *testing.T, db *gorm.DB, externalUserID, challengeID string, at time.Time, xp int) {
	t.Helper()
	sub := models.Submission{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		ChallengeID:    challengeID,
		AnswerGiven:    "flag",
		IsCorrect:      true,
		AttemptNumber:  1,
		PointsEarned:   xp * 2,
		XPEarned:       xp,
		SubmittedAt:    at,
	}
	require.NoError(t, db.Create(&sub).Error)
}
