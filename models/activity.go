package models

import "time"

// ActivityDay is one upserted row per Learner×calendar-day (UTC), feeding the
// heatmap/streak views. Written as a side effect of submissions and lesson
// completions.
type ActivityDay struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index:idx_activity_day_user_day,unique;not null" json:"external_user_id"`
	Day            time.Time `gorm:"index:idx_activity_day_user_day,unique;not null" json:"day"` // UTC midnight

	ActiveMinutes         int `gorm:"default:0" json:"active_minutes"`
	CompletedTaskCount    int `gorm:"default:0" json:"completed_task_count"`
	ChallengesSolvedCount int `gorm:"default:0" json:"challenges_solved_count"`
}
