package models

import "time"

// AccountLedger holds cumulative points/XP per learner, created lazily on the
// first reward. level is always total_xp/1000 + 1 and is recomputed after
// every XP change.
type AccountLedger struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	TotalPoints int64 `json:"total_points" gorm:"default:0"`
	TotalXP     int64 `json:"total_xp" gorm:"default:0"`
	Level       int   `json:"level" gorm:"default:1"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`

	Timestamps
}

// RewardHistoryEntry is the append-only points stream, one row per award.
type RewardHistoryEntry struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	Points         int64     `gorm:"not null" json:"points"`
	Reason         string    `gorm:"size:255" json:"reason"`
	AwardedAt      time.Time `gorm:"index;not null" json:"awarded_at"`
}

// XPLogEntry is the append-only XP stream. Kept separate from the points
// stream: points and XP can be fed by different sources.
type XPLogEntry struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index;not null" json:"external_user_id"`
	XP             int64     `gorm:"not null" json:"xp"`
	Reason         string    `gorm:"size:255" json:"reason"`
	AwardedAt      time.Time `gorm:"index;not null" json:"awarded_at"`
}
