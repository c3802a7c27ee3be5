package services

import (
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// utcDay truncates a timestamp to its UTC calendar day.
func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// lockForUpdate adds row locking on dialects that support it. The SQLite
// test database has a single writer, which serializes these transactions
// without the clause.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// bumpActivity upserts the learner's activity row for the given day with
// atomic counter increments.
func bumpActivity(tx *gorm.DB, externalUserID string, at time.Time, minutes, tasks, solved int) error {
	day := utcDay(at)
	row := models.ActivityDay{
		ID:                    uuid.NewString(),
		ExternalUserID:        externalUserID,
		Day:                   day,
		ActiveMinutes:         minutes,
		CompletedTaskCount:    tasks,
		ChallengesSolvedCount: solved,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"active_minutes":          gorm.Expr("activity_days.active_minutes + ?", minutes),
			"completed_task_count":    gorm.Expr("activity_days.completed_task_count + ?", tasks),
			"challenges_solved_count": gorm.Expr("activity_days.challenges_solved_count + ?", solved),
		}),
	}).Create(&row).Error
}

// touchLearner updates the denormalized learner stats after a completed task.
// The learner row is a mirror owned by the sync worker; a missing row is not
// an error here.
func touchLearner(tx *gorm.DB, externalUserID string, at time.Time, column string) error {
	updates := map[string]interface{}{"last_active_at": at}
	if column != "" {
		updates[column] = gorm.Expr(column+" + 1")
	}
	return tx.Model(&models.Learner{}).
		Where("external_user_id = ?", externalUserID).
		UpdateColumns(updates).Error
}
