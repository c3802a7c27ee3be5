package services

import (
	"fmt"
	"log"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// XPPerLevel: a learner is level totalXP/XPPerLevel + 1. Taken as a given
// business rule, not a tunable.
const XPPerLevel = 1000

func levelForXP(totalXP int64) int {
	return int(totalXP/XPPerLevel) + 1
}

type LedgerService struct {
	DB       *gorm.DB
	Notifier *RewardNotifier
	Badges   *BadgeService
}

func NewLedgerService(db *gorm.DB, notifier *RewardNotifier) *LedgerService {
	return &LedgerService{DB: db, Notifier: notifier, Badges: NewBadgeService(db)}
}

// AwardResult reports the ledger state after an award.
type AwardResult struct {
	TotalPoints int64 `json:"total_points"`
	TotalXP     int64 `json:"total_xp"`
	Level       int   `json:"level"`
	LeveledUp   bool  `json:"leveled_up"`
}

// Award upserts the ledger and appends both history streams in one
// transaction. Side effects (badges, level-up notification) fire after
// commit; call for standalone awards, use AwardTx inside a larger
// transaction.
func (s *LedgerService) Award(externalUserID string, points, xp int64, reason string) (*AwardResult, error) {
	var res *AwardResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		r, err := s.AwardTx(tx, externalUserID, points, xp, reason)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	go s.AfterAward(externalUserID, res)
	return res, nil
}

// AwardTx performs the award inside the caller's transaction. The counter
// update is an expression increment, not read-then-write, so concurrent
// awards to the same learner never lose an update.
func (s *LedgerService) AwardTx(tx *gorm.DB, externalUserID string, points, xp int64, reason string) (*AwardResult, error) {
	if points < 0 || xp < 0 {
		return nil, fmt.Errorf("%w: negative reward (points=%d, xp=%d)", ErrInvalidArgument, points, xp)
	}

	now := time.Now().UTC()

	// Lazy create with the given amounts, or atomic increment if the row exists
	ledger := models.AccountLedger{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		TotalPoints:    points,
		TotalXP:        xp,
		Level:          1,
	}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points": gorm.Expr("account_ledgers.total_points + ?", points),
			"total_xp":     gorm.Expr("account_ledgers.total_xp + ?", xp),
			"updated_at":   now,
		}),
	}).Create(&ledger).Error; err != nil {
		return nil, fmt.Errorf("ledger upsert failed: %w", err)
	}

	// Re-read post-increment state and recompute the level from it
	var current models.AccountLedger
	if err := tx.Where("external_user_id = ?", externalUserID).First(&current).Error; err != nil {
		return nil, fmt.Errorf("ledger re-read failed: %w", err)
	}

	leveledUp := false
	newLevel := levelForXP(current.TotalXP)
	if newLevel != current.Level {
		leveledUp = newLevel > current.Level
		updates := map[string]interface{}{"level": newLevel}
		if leveledUp {
			updates["last_level_up_at"] = now
		}
		if err := tx.Model(&models.AccountLedger{}).
			Where("external_user_id = ?", externalUserID).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("level update failed: %w", err)
		}
		current.Level = newLevel
	}

	// Two independent append-only streams: points and XP can in principle be
	// fed by different sources
	entry := models.RewardHistoryEntry{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Points:         points,
		Reason:         reason,
		AwardedAt:      now,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("reward history append failed: %w", err)
	}
	xpEntry := models.XPLogEntry{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		XP:             xp,
		Reason:         reason,
		AwardedAt:      now,
	}
	if err := tx.Create(&xpEntry).Error; err != nil {
		return nil, fmt.Errorf("xp log append failed: %w", err)
	}

	return &AwardResult{
		TotalPoints: current.TotalPoints,
		TotalXP:     current.TotalXP,
		Level:       current.Level,
		LeveledUp:   leveledUp,
	}, nil
}

// AfterAward runs the fire-and-forget side effects of a committed award.
// Failures are logged and swallowed, never propagated to the reward path.
func (s *LedgerService) AfterAward(externalUserID string, res *AwardResult) {
	if err := s.Badges.AutoAwardBadges(externalUserID); err != nil {
		log.Printf("⚠️ badge check failed for %s: %v", externalUserID, err)
	}
	if res.LeveledUp && s.Notifier != nil {
		s.Notifier.NotifyLevelUp(externalUserID, res.Level)
	}
}

// GetLedger returns the learner's ledger, or a zero-value level-1 view if no
// reward has been earned yet.
func (s *LedgerService) GetLedger(externalUserID string) (*models.AccountLedger, error) {
	var ledger models.AccountLedger
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&ledger).Error
	if err == gorm.ErrRecordNotFound {
		return &models.AccountLedger{ExternalUserID: externalUserID, Level: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// GetHistory returns both award streams, paginated, newest first.
func (s *LedgerService) GetHistory(externalUserID string, page, size int) (map[string]interface{}, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	var totalRewards, totalXPEntries int64
	s.DB.Model(&models.RewardHistoryEntry{}).Where("external_user_id = ?", externalUserID).Count(&totalRewards)
	s.DB.Model(&models.XPLogEntry{}).Where("external_user_id = ?", externalUserID).Count(&totalXPEntries)

	var rewards []models.RewardHistoryEntry
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at DESC").
		Limit(size).Offset(offset).
		Find(&rewards).Error; err != nil {
		return nil, err
	}

	var xpEntries []models.XPLogEntry
	if err := s.DB.Where("external_user_id = ?", externalUserID).
		Order("awarded_at DESC").
		Limit(size).Offset(offset).
		Find(&xpEntries).Error; err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"rewards":          rewards,
		"xp_log":           xpEntries,
		"page":             page,
		"size":             size,
		"total_rewards":    totalRewards,
		"total_xp_entries": totalXPEntries,
	}, nil
}
