package services

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressService struct {
	DB *gorm.DB
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db}
}

// EnrollmentState is returned by the enrollment and lesson-completion calls.
type EnrollmentState struct {
	Progress        int        `json:"progress"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	AlreadyEnrolled bool       `json:"already_enrolled,omitempty"`
}

func percent(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// Enroll is idempotent: re-enrolling returns the existing row flagged
// already_enrolled; only a fresh enrollment bumps the course's counter.
func (s *ProgressService) Enroll(externalUserID, courseID string) (*EnrollmentState, error) {
	var course models.Course
	if err := s.DB.Where("id = ?", courseID).First(&course).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: course %s", ErrNotFound, courseID)
		}
		return nil, err
	}

	var state *EnrollmentState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		enrollment := models.CourseEnrollment{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			CourseID:       courseID,
			EnrolledAt:     now,
			LastAccessedAt: now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).Create(&enrollment)
		if res.Error != nil {
			return fmt.Errorf("enrollment insert failed: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			// Fresh enrollment: the counter moves exactly once
			if err := tx.Model(&models.Course{}).
				Where("id = ?", courseID).
				UpdateColumn("enrollment_count", gorm.Expr("enrollment_count + 1")).Error; err != nil {
				return fmt.Errorf("enrollment counter failed: %w", err)
			}
			state = &EnrollmentState{Progress: 0, IsCompleted: false}
			return nil
		}

		var existing models.CourseEnrollment
		if err := tx.Where("external_user_id = ? AND course_id = ?", externalUserID, courseID).
			First(&existing).Error; err != nil {
			return err
		}
		state = &EnrollmentState{
			Progress:        existing.Progress,
			IsCompleted:     existing.IsCompleted,
			CompletedAt:     existing.CompletedAt,
			AlreadyEnrolled: true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// CompleteLesson idempotently records the completion and recomputes the
// enrollment's percentage. Completion, once reached, is never revoked even
// if the lesson count grows later.
func (s *ProgressService) CompleteLesson(externalUserID, courseID, lessonID string) (*EnrollmentState, error) {
	var state *EnrollmentState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var enrollment models.CourseEnrollment
		if err := lockForUpdate(tx).
			Where("external_user_id = ? AND course_id = ?", externalUserID, courseID).
			First(&enrollment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: course %s", ErrNotEnrolled, courseID)
			}
			return err
		}

		var lesson models.Lesson
		if err := tx.Where("id = ? AND course_id = ?", lessonID, courseID).
			First(&lesson).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: lesson %s in course %s", ErrNotFound, lessonID, courseID)
			}
			return err
		}

		completion := models.LessonCompletion{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			LessonID:       lessonID,
			CourseID:       courseID,
			CompletedAt:    now,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "lesson_id"}},
			DoNothing: true,
		}).Create(&completion)
		if res.Error != nil {
			return fmt.Errorf("lesson completion insert failed: %w", res.Error)
		}
		freshCompletion := res.RowsAffected == 1

		var totalLessons int64
		if err := tx.Model(&models.Lesson{}).
			Where("course_id = ?", courseID).
			Count(&totalLessons).Error; err != nil {
			return err
		}
		var completedLessons int64
		if err := tx.Model(&models.LessonCompletion{}).
			Where("external_user_id = ? AND lesson_id IN (?)",
				externalUserID,
				tx.Model(&models.Lesson{}).Select("id").Where("course_id = ?", courseID)).
			Count(&completedLessons).Error; err != nil {
			return err
		}

		progress := percent(completedLessons, totalLessons)
		isCompleted := enrollment.IsCompleted || progress >= 100

		updates := map[string]interface{}{
			"progress":         progress,
			"is_completed":     isCompleted,
			"last_accessed_at": now,
		}
		firstCompletion := isCompleted && !enrollment.IsCompleted
		if firstCompletion {
			updates["completed_at"] = now
		}
		if err := tx.Model(&models.CourseEnrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("enrollment update failed: %w", err)
		}

		if freshCompletion {
			if err := touchLearner(tx, externalUserID, now, "lessons_completed"); err != nil {
				return err
			}
			if err := bumpActivity(tx, externalUserID, now, 1, 1, 0); err != nil {
				return err
			}
		}
		if firstCompletion {
			if err := touchLearner(tx, externalUserID, now, "courses_completed"); err != nil {
				return err
			}
			log.Printf("🎓 Course completed: %s → %s", externalUserID, courseID)
		}

		completedAt := enrollment.CompletedAt
		if firstCompletion {
			completedAt = &now
		}
		state = &EnrollmentState{Progress: progress, IsCompleted: isCompleted, CompletedAt: completedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// EnrollPath mirrors Enroll for learning paths.
func (s *ProgressService) EnrollPath(externalUserID, pathID string) (*EnrollmentState, error) {
	var path models.LearningPath
	if err := s.DB.Where("id = ?", pathID).First(&path).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: path %s", ErrNotFound, pathID)
		}
		return nil, err
	}

	now := time.Now().UTC()
	enrollment := models.LearningPathEnrollment{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		PathID:         pathID,
		EnrolledAt:     now,
		LastSyncAt:     now,
	}
	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "path_id"}},
		DoNothing: true,
	}).Create(&enrollment)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 1 {
		return &EnrollmentState{}, nil
	}

	var existing models.LearningPathEnrollment
	if err := s.DB.Where("external_user_id = ? AND path_id = ?", externalUserID, pathID).
		First(&existing).Error; err != nil {
		return nil, err
	}
	return &EnrollmentState{
		Progress:        existing.Progress,
		IsCompleted:     existing.IsCompleted,
		CompletedAt:     existing.CompletedAt,
		AlreadyEnrolled: true,
	}, nil
}

// SyncPathProgress recomputes a path enrollment from its modules' completion
// state. Each module resolves through its kind tag: course modules through
// the course enrollment, challenge modules through the challenge progress.
func (s *ProgressService) SyncPathProgress(externalUserID, pathID string) (*EnrollmentState, error) {
	var path models.LearningPath
	if err := s.DB.Preload("Modules", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", pathID).First(&path).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: path %s", ErrNotFound, pathID)
		}
		return nil, err
	}

	var state *EnrollmentState
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		var enrollment models.LearningPathEnrollment
		if err := lockForUpdate(tx).
			Where("external_user_id = ? AND path_id = ?", externalUserID, pathID).
			First(&enrollment).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("%w: path %s", ErrNotEnrolled, pathID)
			}
			return err
		}

		completed, err := s.countCompletedModules(tx, externalUserID, path.Modules)
		if err != nil {
			return err
		}

		progress := percent(completed, int64(len(path.Modules)))
		isCompleted := enrollment.IsCompleted || progress >= 100

		updates := map[string]interface{}{
			"progress":     progress,
			"is_completed": isCompleted,
			"last_sync_at": now,
		}
		firstCompletion := isCompleted && !enrollment.IsCompleted
		if firstCompletion {
			updates["completed_at"] = now
		}
		if err := tx.Model(&models.LearningPathEnrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("path enrollment update failed: %w", err)
		}

		if firstCompletion {
			if err := touchLearner(tx, externalUserID, now, "paths_completed"); err != nil {
				return err
			}
			log.Printf("🛤️ Path completed: %s → %s", externalUserID, path.Slug)
		}

		completedAt := enrollment.CompletedAt
		if firstCompletion {
			completedAt = &now
		}
		state = &EnrollmentState{Progress: progress, IsCompleted: isCompleted, CompletedAt: completedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (s *ProgressService) countCompletedModules(tx *gorm.DB, externalUserID string, modules []models.PathModule) (int64, error) {
	var courseIDs, challengeIDs []string
	for i := range modules {
		ref, ok := modules[i].Ref()
		if !ok {
			// A module missing its reference can never complete
			continue
		}
		switch modules[i].Kind {
		case models.ModuleKindCourse:
			courseIDs = append(courseIDs, ref)
		case models.ModuleKindChallenge:
			challengeIDs = append(challengeIDs, ref)
		}
	}

	var completed int64
	if len(courseIDs) > 0 {
		var n int64
		if err := tx.Model(&models.CourseEnrollment{}).
			Where("external_user_id = ? AND course_id IN ? AND is_completed = ?", externalUserID, courseIDs, true).
			Count(&n).Error; err != nil {
			return 0, err
		}
		completed += n
	}
	if len(challengeIDs) > 0 {
		var n int64
		if err := tx.Model(&models.ChallengeProgress{}).
			Where("external_user_id = ? AND challenge_id IN ? AND completed_at IS NOT NULL", externalUserID, challengeIDs).
			Count(&n).Error; err != nil {
			return 0, err
		}
		completed += n
	}
	return completed, nil
}

// GetEnrollments lists a learner's course enrollments, most recent first.
func (s *ProgressService) GetEnrollments(externalUserID string) ([]models.CourseEnrollment, error) {
	var enrollments []models.CourseEnrollment
	err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

// GetPathEnrollment returns the learner's enrollment on one path.
func (s *ProgressService) GetPathEnrollment(externalUserID, pathID string) (*models.LearningPathEnrollment, error) {
	var enrollment models.LearningPathEnrollment
	err := s.DB.Where("external_user_id = ? AND path_id = ?", externalUserID, pathID).
		First(&enrollment).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: path %s", ErrNotEnrolled, pathID)
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}
