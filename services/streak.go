package services

import (
	"log"
	"sort"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"gorm.io/gorm"
)

// HistogramDays is the dashboard heatmap window: today and the 29 days
// before it.
const HistogramDays = 30

type StreakService struct {
	DB *gorm.DB
}

func NewStreakService(db *gorm.DB) *StreakService {
	return &StreakService{DB: db}
}

// DayActivity is one histogram cell. Days without activity report zeros;
// the histogram is never sparse.
type DayActivity struct {
	Day    time.Time `json:"day"`
	XP     int64     `json:"xp"`
	Solves int       `json:"solves"`
}

type StreakSummary struct {
	CurrentStreak  int           `json:"current_streak"`
	LongestStreak  int           `json:"longest_streak"`
	ActiveDayCount int           `json:"active_day_count"`
	LastThirtyDays []DayActivity `json:"last_thirty_days"`
}

// ComputeStreaks derives the learner's streaks and 30-day histogram from
// their correct submissions. Pure read; the denormalized streak write-back
// onto the learner row is best-effort and never fails the call.
func (s *StreakService) ComputeStreaks(externalUserID string) (*StreakSummary, error) {
	var subs []models.Submission
	if err := s.DB.
		Select("submitted_at", "xp_earned").
		Where("external_user_id = ? AND is_correct = ?", externalUserID, true).
		Order("submitted_at DESC").
		Find(&subs).Error; err != nil {
		return nil, err
	}

	today := utcDay(time.Now())

	// Collapse timestamps into unique UTC days, and bucket XP/solves per day
	seen := make(map[time.Time]struct{})
	xpByDay := make(map[time.Time]int64)
	solvesByDay := make(map[time.Time]int)
	var days []time.Time
	for i := range subs {
		d := utcDay(subs[i].SubmittedAt)
		xpByDay[d] += int64(subs[i].XPEarned)
		solvesByDay[d]++
		if _, ok := seen[d]; !ok {
			seen[d] = struct{}{}
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	summary := &StreakSummary{
		CurrentStreak:  currentStreak(today, days),
		LongestStreak:  longestStreak(days),
		ActiveDayCount: len(days),
		LastThirtyDays: histogram(today, xpByDay, solvesByDay),
	}

	if err := s.DB.Model(&models.Learner{}).
		Where("external_user_id = ?", externalUserID).
		UpdateColumns(map[string]interface{}{
			"current_streak": summary.CurrentStreak,
			"longest_streak": summary.LongestStreak,
		}).Error; err != nil {
		log.Printf("⚠️ streak write-back failed for %s: %v", externalUserID, err)
	}

	return summary, nil
}

// currentStreak walks backward from today through the unique active days.
// Today is the anchor, not the most recent active day: a learner who was
// active yesterday but not yet today keeps a live streak until the day
// elapses without activity.
func currentStreak(today time.Time, days []time.Time) int {
	streak := 0
	anchor := today
	for _, d := range days {
		gap := dayGap(anchor, d)
		if gap > 1 {
			break
		}
		streak++
		anchor = d
	}
	return streak
}

// longestStreak scans the descending unique-day list pairwise; consecutive
// days extend the run, any larger gap resets it.
func longestStreak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if dayGap(days[i-1], days[i]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// dayGap counts whole days between two UTC midnights, newer first.
func dayGap(newer, older time.Time) int {
	return int(newer.Sub(older).Hours() / 24)
}

func histogram(today time.Time, xpByDay map[time.Time]int64, solvesByDay map[time.Time]int) []DayActivity {
	out := make([]DayActivity, 0, HistogramDays)
	for i := HistogramDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		out = append(out, DayActivity{Day: d, XP: xpByDay[d], Solves: solvesByDay[d]})
	}
	return out
}
