package services

import (
	"testing"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newEvaluator(t *testing.T) (*gorm.DB, *SubmissionService) {
	db := newTestDB(t)
	ledger := NewLedgerService(db, nil)
	return db, NewSubmissionService(db, ledger)
}

// backdateStart shifts started_at so the time-taken computation is exact.
func backdateStart(t *testing.T, db *gorm.DB, userID, challengeID string, seconds int) {
	t.Helper()
	res := db.Model(&models.ChallengeProgress{}).
		Where("external_user_id = ? AND challenge_id = ?", userID, challengeID).
		Update("started_at", time.Now().UTC().Add(-time.Duration(seconds)*time.Second))
	require.NoError(t, res.Error)
	require.EqualValues(t, 1, res.RowsAffected)
}

func TestEvaluateFirstAttemptWithTimeBonus(t *testing.T) {
	db, eval := newEvaluator(t)
	seedLearner(t, db, "l1")
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer:   "FLAG{alpha}",
		BasePoints:       100,
		BaseXP:           50,
		TimeLimitSeconds: 60,
	})

	_, err := eval.StartChallenge("l1", ch.ID)
	require.NoError(t, err)
	backdateStart(t, db, "l1", ch.ID, 30)

	// Trimmed, case-insensitive match
	res, err := eval.Evaluate("l1", ch.ID, "  flag{ALPHA} ")
	require.NoError(t, err)

	assert.True(t, res.IsCorrect)
	assert.Equal(t, 1, res.AttemptNumber)
	assert.Equal(t, 30, res.TimeTakenSeconds)
	// bonus = floor(100 * 0.3 * 30/60) = 15
	assert.Equal(t, 115, res.PointsEarned)
	// xp = 50 + floor(15 * 0.5) = 57
	assert.Equal(t, 57, res.XPEarned)

	require.NotNil(t, res.Ledger)
	assert.Equal(t, int64(115), res.Ledger.TotalPoints)
	assert.Equal(t, int64(57), res.Ledger.TotalXP)

	var prog models.ChallengeProgress
	require.NoError(t, db.Where("external_user_id = ? AND challenge_id = ?", "l1", ch.ID).First(&prog).Error)
	assert.Equal(t, 1, prog.Attempts)
	assert.Equal(t, 100, prog.Progress)
	require.NotNil(t, prog.CompletedAt)
}

func TestEvaluateThirdAttemptOverTimeLimit(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer:   "FLAG{alpha}",
		BasePoints:       100,
		BaseXP:           50,
		TimeLimitSeconds: 60,
	})

	for i := 0; i < 2; i++ {
		res, err := eval.Evaluate("l1", ch.ID, "wrong")
		require.NoError(t, err)
		assert.False(t, res.IsCorrect)
		assert.Zero(t, res.PointsEarned)
		assert.Zero(t, res.XPEarned)
	}
	backdateStart(t, db, "l1", ch.ID, 70)

	res, err := eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.NoError(t, err)

	assert.True(t, res.IsCorrect)
	assert.Equal(t, 3, res.AttemptNumber)
	// over the limit: no bonus; penalty = 2 * 10
	assert.Equal(t, 80, res.PointsEarned)
	assert.Equal(t, 50, res.XPEarned)
}

func TestEvaluateEmptyAnswerCountsAttempt(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
	})

	res, err := eval.Evaluate("l1", ch.ID, "   ")
	require.NoError(t, err)

	assert.False(t, res.IsCorrect)
	assert.Zero(t, res.PointsEarned)
	assert.Equal(t, 1, res.AttemptNumber)

	var prog models.ChallengeProgress
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).First(&prog).Error)
	assert.Equal(t, 1, prog.Attempts)
	assert.Nil(t, prog.CompletedAt)
}

func TestEvaluateEmptyExpectedAnswerNeverMatches(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "   ",
		BasePoints:     100,
		BaseXP:         50,
	})

	res, err := eval.Evaluate("l1", ch.ID, "")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect, "empty-vs-empty must fail closed")

	res, err = eval.Evaluate("l1", ch.ID, "anything")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
}

func TestEvaluateRewardFloor(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     15,
		BaseXP:         3,
	})

	for i := 0; i < 4; i++ {
		_, err := eval.Evaluate("l1", ch.ID, "wrong")
		require.NoError(t, err)
	}

	// attempt 5: penalty 40 swamps the base; floors apply
	res, err := eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, MinPointsPerSolve, res.PointsEarned)
	assert.Equal(t, MinXPPerSolve, res.XPEarned)
}

func TestEvaluateUnknownChallenge(t *testing.T) {
	_, eval := newEvaluator(t)
	_, err := eval.Evaluate("l1", "00000000-0000-0000-0000-000000000000", "x")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluateAlreadyCompleted(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
	})

	_, err := eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.NoError(t, err)

	_, err = eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.ErrorIs(t, err, ErrAlreadyCompleted)

	// The rejection recorded nothing: no extra attempt, no extra submission
	var prog models.ChallengeProgress
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).First(&prog).Error)
	assert.Equal(t, 1, prog.Attempts)
	require.NotNil(t, prog.CompletedAt)

	var subs int64
	db.Model(&models.Submission{}).Where("challenge_id = ?", ch.ID).Count(&subs)
	assert.Equal(t, int64(1), subs)
}

func TestEvaluateAttemptsExhausted(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
		MaxAttempts:    2,
	})

	for i := 0; i < 2; i++ {
		_, err := eval.Evaluate("l1", ch.ID, "wrong")
		require.NoError(t, err)
	}

	_, err := eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.ErrorIs(t, err, ErrAttemptsExhausted)

	var prog models.ChallengeProgress
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).First(&prog).Error)
	assert.Equal(t, 2, prog.Attempts)
}

func TestEvaluateAttemptNumbersHaveNoGaps(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
	})

	const attempts = 7
	for i := 0; i < attempts; i++ {
		res, err := eval.Evaluate("l1", ch.ID, "wrong")
		require.NoError(t, err)
		assert.Equal(t, i+1, res.AttemptNumber)
	}

	var subs []models.Submission
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).Order("attempt_number ASC").Find(&subs).Error)
	require.Len(t, subs, attempts)
	for i, sub := range subs {
		assert.Equal(t, i+1, sub.AttemptNumber)
	}

	var prog models.ChallengeProgress
	require.NoError(t, db.Where("challenge_id = ?", ch.ID).First(&prog).Error)
	assert.Equal(t, attempts, prog.Attempts, "attempts must equal the number of accepted submissions")
}

func TestEvaluateUpdatesLearnerStatsAndActivity(t *testing.T) {
	db, eval := newEvaluator(t)
	seedLearner(t, db, "l1")
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
	})

	_, err := eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.NoError(t, err)

	var learner models.Learner
	require.NoError(t, db.Where("external_user_id = ?", "l1").First(&learner).Error)
	assert.Equal(t, int64(1), learner.ChallengesSolved)
	require.NotNil(t, learner.LastActiveAt)

	var day models.ActivityDay
	require.NoError(t, db.Where("external_user_id = ?", "l1").First(&day).Error)
	assert.Equal(t, 1, day.ChallengesSolvedCount)
	assert.Equal(t, 1, day.CompletedTaskCount)
}

func TestStartChallengeIsIdempotent(t *testing.T) {
	db, eval := newEvaluator(t)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
	})

	first, err := eval.StartChallenge("l1", ch.ID)
	require.NoError(t, err)
	second, err := eval.StartChallenge("l1", ch.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.StartedAt.Unix(), second.StartedAt.Unix())

	var count int64
	db.Model(&models.ChallengeProgress{}).Where("challenge_id = ?", ch.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}
