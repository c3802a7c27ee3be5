package services

import (
	"fmt"
	"log"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ContentService owns the admin side of courses, labs and paths: creation,
// slugs, publish scheduling.
type ContentService struct {
	DB *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{DB: db}
}

type CreateChallengeInput struct {
	Title            string     `json:"title" validate:"required,max=255"`
	Description      string     `json:"description"`
	Category         string     `json:"category" validate:"required,max=64"`
	Difficulty       string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard insane"`
	ExpectedAnswer   string     `json:"expected_answer" validate:"required"`
	BasePoints       int        `json:"base_points" validate:"required,min=1"`
	BaseXP           int        `json:"base_xp" validate:"required,min=1"`
	TimeLimitSeconds int        `json:"time_limit_seconds" validate:"min=0"`
	MaxAttempts      int        `json:"max_attempts" validate:"min=0"`
	PublishAt        *time.Time `json:"publish_at"`
}

// CreateChallenge creates a lab in draft (or scheduled) state.
func (s *ContentService) CreateChallenge(in *CreateChallengeInput) (*models.Challenge, error) {
	challenge := &models.Challenge{
		ID:               uuid.NewString(),
		Slug:             slug.Make(in.Title),
		Title:            in.Title,
		Description:      in.Description,
		Category:         in.Category,
		Difficulty:       in.Difficulty,
		ExpectedAnswer:   in.ExpectedAnswer,
		BasePoints:       in.BasePoints,
		BaseXP:           in.BaseXP,
		TimeLimitSeconds: in.TimeLimitSeconds,
		MaxAttempts:      in.MaxAttempts,
		Status:           models.ContentStatusDraft,
		PublishAt:        in.PublishAt,
	}
	if challenge.Difficulty == "" {
		challenge.Difficulty = "easy"
	}
	if in.PublishAt != nil {
		challenge.Status = models.ContentStatusScheduled
	}
	if err := s.DB.Create(challenge).Error; err != nil {
		return nil, err
	}
	return challenge, nil
}

type CreateCourseInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	PublishAt   *time.Time `json:"publish_at"`
	Lessons     []struct {
		Title   string `json:"title" validate:"required,max=255"`
		Content string `json:"content"`
	} `json:"lessons" validate:"dive"`
}

// CreateCourse creates a course and its ordered lessons in one transaction.
func (s *ContentService) CreateCourse(in *CreateCourseInput) (*models.Course, error) {
	course := &models.Course{
		ID:          uuid.NewString(),
		Slug:        slug.Make(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Status:      models.ContentStatusDraft,
		PublishAt:   in.PublishAt,
	}
	if in.PublishAt != nil {
		course.Status = models.ContentStatusScheduled
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(course).Error; err != nil {
			return err
		}
		for i, l := range in.Lessons {
			lesson := models.Lesson{
				ID:       uuid.NewString(),
				CourseID: course.ID,
				Title:    l.Title,
				Content:  l.Content,
				Position: i,
			}
			if err := tx.Create(&lesson).Error; err != nil {
				return err
			}
			course.Lessons = append(course.Lessons, lesson)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

type CreatePathInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	PublishAt   *time.Time `json:"publish_at"`
	Modules     []struct {
		Kind        models.ModuleKind `json:"kind" validate:"required,oneof=course challenge"`
		CourseID    *string           `json:"course_id" validate:"omitempty,uuid"`
		ChallengeID *string           `json:"challenge_id" validate:"omitempty,uuid"`
	} `json:"modules" validate:"required,min=1,dive"`
}

// CreatePath creates a learning path and its ordered modules. Each module
// must reference exactly the unit its kind names.
func (s *ContentService) CreatePath(in *CreatePathInput) (*models.LearningPath, error) {
	path := &models.LearningPath{
		ID:          uuid.NewString(),
		Slug:        slug.Make(in.Title),
		Title:       in.Title,
		Description: in.Description,
		Status:      models.ContentStatusDraft,
		PublishAt:   in.PublishAt,
	}
	if in.PublishAt != nil {
		path.Status = models.ContentStatusScheduled
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(path).Error; err != nil {
			return err
		}
		for i, m := range in.Modules {
			module := models.PathModule{
				ID:       uuid.NewString(),
				PathID:   path.ID,
				Position: i,
				Kind:     m.Kind,
			}
			switch m.Kind {
			case models.ModuleKindCourse:
				if m.CourseID == nil || m.ChallengeID != nil {
					return fmt.Errorf("%w: course module %d must reference exactly one course", ErrInvalidArgument, i)
				}
				module.CourseID = m.CourseID
			case models.ModuleKindChallenge:
				if m.ChallengeID == nil || m.CourseID != nil {
					return fmt.Errorf("%w: challenge module %d must reference exactly one challenge", ErrInvalidArgument, i)
				}
				module.ChallengeID = m.ChallengeID
			default:
				return fmt.Errorf("%w: unknown module kind %q", ErrInvalidArgument, m.Kind)
			}
			if err := tx.Create(&module).Error; err != nil {
				return err
			}
			path.Modules = append(path.Modules, module)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return path, nil
}

// SetThumbnail stores an uploaded thumbnail URL on a course, lab or path and
// returns the URL it replaced, so the caller can clean up the old object.
func (s *ContentService) SetThumbnail(model interface{}, id, url string) (string, error) {
	var previous string
	if err := s.DB.Model(model).Where("id = ?", id).
		Select("thumbnail_url").Scan(&previous).Error; err != nil {
		return "", err
	}
	res := s.DB.Model(model).Where("id = ?", id).Update("thumbnail_url", url)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return previous, nil
}

// StartPublishScheduler flips scheduled content to published once its
// publish time passes. Runs every minute.
func (s *ContentService) StartPublishScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()
			for _, model := range []interface{}{
				&models.Challenge{}, &models.Course{}, &models.LearningPath{},
			} {
				res := s.DB.Model(model).
					Where("status = ? AND publish_at <= ?", models.ContentStatusScheduled, now).
					Updates(map[string]interface{}{
						"status":     models.ContentStatusPublished,
						"publish_at": nil,
					})
				if res.Error != nil {
					log.Printf("[Scheduler] DB error: %v", res.Error)
					continue
				}
				if res.RowsAffected > 0 {
					log.Printf("✅ Auto-published %d items (%T)", res.RowsAffected, model)
				}
			}
		}),
	)
}
