// workers/path_sync_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"
	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/services"

	"gorm.io/gorm"
)

// PollPathProgress periodically re-syncs open path enrollments so path
// percentages converge even when the underlying course or lab completions
// happened without an explicit sync call.
func PollPathProgress(ctx context.Context, db *gorm.DB, progress *services.ProgressService, interval time.Duration) {
	log.Println("🔁 Starting Path Progress Sync (enrollments → path percentages)…")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			syncStaleEnrollments(db, progress, interval)
		case <-ctx.Done():
			log.Println("⏹️ Path Progress Sync stopped")
			return
		}
	}
}

func syncStaleEnrollments(db *gorm.DB, progress *services.ProgressService, staleAfter time.Duration) {
	cutoff := time.Now().UTC().Add(-staleAfter)

	var enrollments []models.LearningPathEnrollment
	if err := db.Where("is_completed = ? AND last_sync_at < ?", false, cutoff).
		Limit(200).
		Find(&enrollments).Error; err != nil {
		log.Printf("[PATH_SYNC] ❌ query failed: %v", err)
		return
	}
	if len(enrollments) == 0 {
		return
	}

	var synced, failed int
	for _, e := range enrollments {
		if _, err := progress.SyncPathProgress(e.ExternalUserID, e.PathID); err != nil {
			failed++
			log.Printf("[PATH_SYNC] ⚠️ sync failed for user=%s path=%s: %v", e.ExternalUserID, e.PathID, err)
		} else {
			synced++
		}
	}
	log.Printf("[PATH_SYNC] ✅ Re-synced %d path enrollments (%d failed)", synced, failed)
}
