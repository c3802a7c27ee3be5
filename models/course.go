package models

import "time"

// Course groups an ordered list of lessons.
type Course struct {
	ID           string        `gorm:"primaryKey;type:uuid" json:"id"`
	Slug         string        `gorm:"uniqueIndex;not null" json:"slug"`
	Title        string        `gorm:"not null" json:"title"`
	Description  string        `gorm:"type:text" json:"description"`
	ThumbnailURL string        `gorm:"type:text" json:"thumbnail_url"`
	Status       ContentStatus `gorm:"not null;default:'draft';index" json:"status"`
	PublishAt    *time.Time    `json:"publish_at,omitempty"`

	// Denormalized counter, bumped once per fresh enrollment
	EnrollmentCount int64 `gorm:"default:0" json:"enrollment_count"`

	Lessons []Lesson `gorm:"foreignKey:CourseID" json:"lessons,omitempty"`

	Timestamps
}

type Lesson struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	CourseID string `gorm:"index;not null" json:"course_id"`
	Title    string `gorm:"not null" json:"title"`
	Content  string `gorm:"type:text" json:"content"`
	Position int    `gorm:"not null;default:0" json:"position"`

	Timestamps
}

// CourseEnrollment is one row per Learner×Course. is_completed, once true, is
// never revoked even if lessons are added later and the percentage drops.
type CourseEnrollment struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"index:idx_course_enrollment_user_course,unique;not null" json:"external_user_id"`
	CourseID       string `gorm:"index:idx_course_enrollment_user_course,unique;not null" json:"course_id"`

	Progress    int  `gorm:"default:0" json:"progress"` // 0..100, rounded
	IsCompleted bool `gorm:"default:false" json:"is_completed"`

	EnrolledAt     time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`

	Timestamps
}

// LessonCompletion: existence = completed. Insertion is idempotent.
type LessonCompletion struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"index:idx_lesson_completion_user_lesson,unique;not null" json:"external_user_id"`
	LessonID       string    `gorm:"index:idx_lesson_completion_user_lesson,unique;not null" json:"lesson_id"`
	CourseID       string    `gorm:"index;not null" json:"course_id"`
	CompletedAt    time.Time `gorm:"not null" json:"completed_at"`
}
