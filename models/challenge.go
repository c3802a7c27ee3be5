package models

import "time"

// ContentStatus is shared by challenges, courses and learning paths.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusScheduled ContentStatus = "scheduled"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// Challenge is a lab exercise with a single expected answer (the flag) and a
// reward schedule. Read-only from the evaluator's perspective.
type Challenge struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Slug         string `gorm:"uniqueIndex;not null" json:"slug"`
	Title        string `gorm:"not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	Category     string `gorm:"index" json:"category"` // e.g. "web", "crypto", "forensics"
	Difficulty   string `gorm:"type:varchar(16);default:'easy'" json:"difficulty"`
	ThumbnailURL string `gorm:"type:text" json:"thumbnail_url"`

	// Expected answer, compared trimmed and case-insensitive
	ExpectedAnswer string `gorm:"not null" json:"-"`

	// Reward schedule
	BasePoints int `gorm:"not null;default:100" json:"base_points"`
	BaseXP     int `gorm:"not null;default:50" json:"base_xp"`

	// Optional limits: 0 means "no limit"
	TimeLimitSeconds int `gorm:"default:0" json:"time_limit_seconds"`
	MaxAttempts      int `gorm:"default:0" json:"max_attempts"`

	Status    ContentStatus `gorm:"not null;default:'draft';index" json:"status"`
	PublishAt *time.Time    `json:"publish_at,omitempty"`

	Timestamps
}

// ChallengeProgress is one row per Learner×Challenge. attempts moves by exactly
// 1 per evaluated submission; completed_at, once set, is never cleared.
type ChallengeProgress struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_challenge_progress_user_challenge,unique;not null" json:"external_user_id"`
	ChallengeID    string `gorm:"index:idx_challenge_progress_user_challenge,unique;not null" json:"challenge_id"`

	Attempts  int `gorm:"default:0" json:"attempts"`
	HintsUsed int `gorm:"default:0" json:"hints_used"`
	Progress  int `gorm:"default:0" json:"progress"` // 0..100

	StartedAt    time.Time  `gorm:"not null" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	LastAccessAt time.Time  `json:"last_access_at"`

	Timestamps
}

// Submission is the append-only attempt log, one row per evaluated attempt.
// Never updated or deleted.
type Submission struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index;not null" json:"external_user_id"`
	ChallengeID    string `gorm:"index;not null" json:"challenge_id"`

	AnswerGiven      string `gorm:"type:text" json:"answer_given"`
	IsCorrect        bool   `gorm:"index" json:"is_correct"`
	TimeTakenSeconds int    `gorm:"default:0" json:"time_taken_seconds"`
	AttemptNumber    int    `gorm:"not null" json:"attempt_number"`

	PointsEarned int `gorm:"default:0" json:"points_earned"`
	XPEarned     int `gorm:"default:0" json:"xp_earned"`

	SubmittedAt time.Time `gorm:"index;not null" json:"submitted_at"`
}
