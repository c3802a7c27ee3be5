package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB       *gorm.DB
	Notifier *RewardNotifier
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// SeedBadgeTypes upserts the predefined triggers so awarded badges reference
// stable rows. Called once at startup.
func (s *BadgeService) SeedBadgeTypes() error {
	for i := range models.BadgeTriggers {
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&models.BadgeTriggers[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// AutoAwardBadges checks every trigger against the learner's stats and
// ledger after a progress update. Awarding is idempotent per badge type.
func (s *BadgeService) AutoAwardBadges(externalUserID string) error {
	var learner models.Learner
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&learner).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Learner mirror not synced yet; nothing to check against
			return nil
		}
		return err
	}

	var ledger models.AccountLedger
	if err := s.DB.Where("external_user_id = ?", externalUserID).First(&ledger).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		ledger.Level = 1
	}

	var triggers []models.BadgeType
	if err := s.DB.Find(&triggers).Error; err != nil {
		return err
	}

	for _, trigger := range triggers {
		if !s.meetsThreshold(&learner, &ledger, trigger.Threshold) {
			continue
		}
		badge := models.LearnerBadge{
			ExternalUserID: externalUserID,
			BadgeTypeID:    trigger.ID,
		}
		res := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "badge_type_id"}},
			DoNothing: true,
		}).Create(&badge)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			log.Printf("🎖️ Badge awarded: %s → %s", trigger.Name, externalUserID)
			if s.Notifier != nil {
				s.Notifier.NotifyBadge(externalUserID, trigger.Code, trigger.Name)
			}
		}
	}
	return nil
}

func (s *BadgeService) meetsThreshold(learner *models.Learner, ledger *models.AccountLedger, req map[string]int64) bool {
	for key, required := range req {
		switch key {
		case "challenges_solved":
			if learner.ChallengesSolved < required {
				return false
			}
		case "lessons_completed":
			if learner.LessonsCompleted < required {
				return false
			}
		case "courses_completed":
			if learner.CoursesCompleted < required {
				return false
			}
		case "paths_completed":
			if learner.PathsCompleted < required {
				return false
			}
		case "longest_streak":
			if int64(learner.LongestStreak) < required {
				return false
			}
		case "level":
			if int64(ledger.Level) < required {
				return false
			}
		}
	}
	return true
}

// GetBadges lists a learner's awarded badges with their type details.
func (s *BadgeService) GetBadges(externalUserID string) ([]map[string]interface{}, error) {
	var awarded []models.LearnerBadge
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at DESC").
		Find(&awarded).Error; err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(awarded))
	for _, lb := range awarded {
		var bt models.BadgeType
		if err := s.DB.Where("id = ?", lb.BadgeTypeID).First(&bt).Error; err != nil {
			continue
		}
		out = append(out, map[string]interface{}{
			"id":          lb.ID,
			"code":        bt.Code,
			"name":        bt.Name,
			"description": bt.Description,
			"icon_url":    bt.IconURL,
			"rarity":      bt.Rarity,
			"awarded_at":  lb.AwardedAt,
		})
	}
	return out, nil
}

type CreateBadgeTypeInput struct {
	Code        string           `json:"code" validate:"required,max=64"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Rarity      string           `json:"rarity" validate:"omitempty,oneof=common rare epic legendary"`
	Threshold   map[string]int64 `json:"threshold" validate:"required,min=1"`
}

var thresholdKeys = map[string]bool{
	"challenges_solved": true,
	"lessons_completed": true,
	"courses_completed": true,
	"paths_completed":   true,
	"longest_streak":    true,
	"level":             true,
}

// CreateBadgeType adds an admin-defined trigger alongside the seeded ones.
// The code is normalized to SCREAMING_SNAKE so it lines up with the seeds.
func (s *BadgeService) CreateBadgeType(in *CreateBadgeTypeInput) (*models.BadgeType, error) {
	for key, required := range in.Threshold {
		if !thresholdKeys[key] {
			return nil, fmt.Errorf("%w: unknown threshold key %q", ErrInvalidArgument, key)
		}
		if required < 1 {
			return nil, fmt.Errorf("%w: threshold %q must be at least 1", ErrInvalidArgument, key)
		}
	}

	bt := models.BadgeType{
		Code:        strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(in.Code), " ", "_")),
		Name:        in.Name,
		Description: in.Description,
		Rarity:      in.Rarity,
		Threshold:   in.Threshold,
	}
	if bt.Rarity == "" {
		bt.Rarity = "common"
	}

	res := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&bt)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: badge code %s already exists", ErrInvalidArgument, bt.Code)
	}
	return &bt, nil
}

// SetIcon stores an uploaded icon URL on a badge type and returns the URL it
// replaced.
func (s *BadgeService) SetIcon(badgeTypeID, url string) (string, error) {
	var previous string
	if err := s.DB.Model(&models.BadgeType{}).Where("id = ?", badgeTypeID).
		Select("icon_url").Scan(&previous).Error; err != nil {
		return "", err
	}
	res := s.DB.Model(&models.BadgeType{}).Where("id = ?", badgeTypeID).Update("icon_url", url)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("%w: badge type %s", ErrNotFound, badgeTypeID)
	}
	return previous, nil
}
