package models

import "time"

// ModuleKind tags which kind of unit backs a path module. Exactly one of the
// two references is meaningful, selected by the kind.
type ModuleKind string

const (
	ModuleKindCourse    ModuleKind = "course"
	ModuleKindChallenge ModuleKind = "challenge"
)

// LearningPath is an ordered sequence of course- or challenge-backed modules.
type LearningPath struct {
	ID           string        `gorm:"primaryKey;type:uuid" json:"id"`
	Slug         string        `gorm:"uniqueIndex;not null" json:"slug"`
	Title        string        `gorm:"not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description"`
	ThumbnailURL string        `gorm:"type:text" json:"thumbnail_url"`
	Status       ContentStatus `gorm:"not null;default:'draft';index" json:"status"`
	PublishAt    *time.Time    `json:"publish_at,omitempty"`

	Modules []PathModule `gorm:"foreignKey:PathID" json:"modules,omitempty"`

	Timestamps
}

// PathModule is one step of a path. Kind decides which reference applies;
// aggregation code must switch on Kind, never on which column happens to be
// non-empty.
type PathModule struct {
	ID       string     `gorm:"primaryKey;type:uuid" json:"id"`
	PathID   string     `gorm:"index;not null" json:"path_id"`
	Position int        `gorm:"not null;default:0" json:"position"`
	Kind     ModuleKind `gorm:"type:varchar(16);not null" json:"kind"`

	CourseID    *string `gorm:"index" json:"course_id,omitempty"`
	ChallengeID *string `gorm:"index" json:"challenge_id,omitempty"`

	Timestamps
}

// Ref returns the id of the unit backing the module, keyed by Kind.
func (m *PathModule) Ref() (string, bool) {
	switch m.Kind {
	case ModuleKindCourse:
		if m.CourseID != nil {
			return *m.CourseID, true
		}
	case ModuleKindChallenge:
		if m.ChallengeID != nil {
			return *m.ChallengeID, true
		}
	}
	return "", false
}

// LearningPathEnrollment is one row per Learner×Path, derived from module
// completion state by the aggregator.
type LearningPathEnrollment struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_path_enrollment_user_path,unique;not null" json:"external_user_id"`
	PathID         string `gorm:"index:idx_path_enrollment_user_path,unique;not null" json:"path_id"`

	Progress    int  `gorm:"default:0" json:"progress"` // 0..100, rounded
	IsCompleted bool `gorm:"default:false" json:"is_completed"`

	EnrolledAt  time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	LastSyncAt  time.Time  `json:"last_sync_at"`

	Timestamps
}
