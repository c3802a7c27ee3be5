package models

import (
	"time"
)

// BadgeType: static config (seeded into DB at startup)
type BadgeType struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	Code        string `gorm:"uniqueIndex;not null"` // e.g., "FIRST_BLOOD", "STREAK_7"
	Name        string `gorm:"not null"`
	Description string
	IconURL     string           `gorm:"type:text"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"serializer:json;type:jsonb"`        // e.g., {"challenges_solved": 10}
	CreatedAt   time.Time        `gorm:"autoCreateTime"`
}

// LearnerBadge: awarded instance (many-to-many)
type LearnerBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid"`
	ExternalUserID string    `gorm:"index:idx_learner_badge_user_type,unique;not null"`
	BadgeTypeID    string    `gorm:"index:idx_learner_badge_user_type,unique;not null"`
	AwardedAt      time.Time `gorm:"autoCreateTime"`
	Metadata       string    `gorm:"serializer:json;type:jsonb"`
}

// Predefined badge triggers, checked after every ledger award
var BadgeTriggers = []BadgeType{
	{
		Code:        "FIRST_BLOOD",
		Name:        "First Blood",
		Description: "Solved your first lab",
		Rarity:      "common",
		Threshold:   map[string]int64{"challenges_solved": 1},
	},
	{
		Code:        "LAB_RAT",
		Name:        "Lab Rat",
		Description: "Solved 10 labs",
		Rarity:      "rare",
		Threshold:   map[string]int64{"challenges_solved": 10},
	},
	{
		Code:        "BOOKWORM",
		Name:        "Bookworm",
		Description: "Completed 25 lessons",
		Rarity:      "common",
		Threshold:   map[string]int64{"lessons_completed": 25},
	},
	{
		Code:        "STREAK_7",
		Name:        "On Fire",
		Description: "Kept a 7-day solving streak",
		Rarity:      "rare",
		Threshold:   map[string]int64{"longest_streak": 7},
	},
	{
		Code:        "LEVEL_10",
		Name:        "Double Digits",
		Description: "Reached level 10",
		Rarity:      "epic",
		Threshold:   map[string]int64{"level": 10},
	},
}
