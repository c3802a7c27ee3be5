package models

import (
	"time"

	"gorm.io/gorm"
)

// Learner is a local mirror of the profile service's user record plus the
// denormalized progression stats this service owns.
type Learner struct {
	ID             string  `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to profile service
	Username       string  `gorm:"index;not null" json:"username"`
	Email          string  `json:"email,omitempty"`
	AvatarURL      *string `json:"avatar_url,omitempty"`

	// Activity counters (denormalized for dashboard reads)
	ChallengesSolved int64 `json:"challenges_solved" gorm:"default:0"`
	LessonsCompleted int64 `json:"lessons_completed" gorm:"default:0"`
	CoursesCompleted int64 `json:"courses_completed" gorm:"default:0"`
	PathsCompleted   int64 `json:"paths_completed" gorm:"default:0"`

	// Streaks, refreshed by the streak calculator
	CurrentStreak int `json:"current_streak" gorm:"default:0"`
	LongestStreak int `json:"longest_streak" gorm:"default:0"`

	LastActiveAt *time.Time `json:"last_active_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
