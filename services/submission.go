package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptPenalty is deducted per prior attempt on a correct answer.
const AttemptPenalty = 10

// Reward floors: every correct answer earns at least this much, regardless
// of penalties.
const (
	MinPointsPerSolve = 10
	MinXPPerSolve     = 5
)

type SubmissionService struct {
	DB     *gorm.DB
	Ledger *LedgerService
}

func NewSubmissionService(db *gorm.DB, ledger *LedgerService) *SubmissionService {
	return &SubmissionService{DB: db, Ledger: ledger}
}

// SubmissionResult is what the learner sees after an evaluated attempt.
type SubmissionResult struct {
	IsCorrect        bool         `json:"is_correct"`
	PointsEarned     int          `json:"points_earned"`
	XPEarned         int          `json:"xp_earned"`
	TimeTakenSeconds int          `json:"time_taken_seconds"`
	AttemptNumber    int          `json:"attempt_number"`
	Message          string       `json:"message"`
	Ledger           *AwardResult `json:"ledger,omitempty"`
}

// Evaluate checks a submitted answer against a challenge and, when correct,
// rewards the learner. Progress creation, the answer check, the submission
// append, the progress update and the ledger award all commit or roll back
// as one transaction; concurrent evaluations for the same learner and
// challenge serialize on the locked progress row, so attempt numbers have
// no gaps or duplicates.
func (s *SubmissionService) Evaluate(externalUserID, challengeID, answer string) (*SubmissionResult, error) {
	if externalUserID == "" || challengeID == "" {
		return nil, fmt.Errorf("%w: learner and challenge are required", ErrInvalidArgument)
	}

	var challenge models.Challenge
	if err := s.DB.Where("id = ?", challengeID).First(&challenge).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("%w: challenge %s", ErrNotFound, challengeID)
		}
		return nil, err
	}

	var result *SubmissionResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		// Lazily create the progress row, then take it with a row lock so
		// concurrent evaluators for this learner×challenge serialize here.
		seed := models.ChallengeProgress{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			ChallengeID:    challengeID,
			StartedAt:      now,
			LastAccessAt:   now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "challenge_id"}},
			DoNothing: true,
		}).Create(&seed).Error; err != nil {
			return fmt.Errorf("progress init failed: %w", err)
		}

		var prog models.ChallengeProgress
		if err := lockForUpdate(tx).
			Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
			First(&prog).Error; err != nil {
			return fmt.Errorf("progress lock failed: %w", err)
		}

		// Rejections: no attempt is recorded, the whole transaction rolls back
		if prog.CompletedAt != nil {
			return ErrAlreadyCompleted
		}
		if challenge.MaxAttempts > 0 && prog.Attempts >= challenge.MaxAttempts {
			return ErrAttemptsExhausted
		}

		// Fail-closed answer check: an empty expected or submitted answer
		// never matches
		given := strings.TrimSpace(answer)
		expected := strings.TrimSpace(challenge.ExpectedAnswer)
		correct := given != "" && expected != "" && strings.EqualFold(given, expected)

		timeTaken := int(now.Sub(prog.StartedAt).Seconds())
		if timeTaken < 0 {
			timeTaken = 0
		}
		attemptNumber := prog.Attempts + 1

		points, xp := 0, 0
		if correct {
			points, xp = scoreSolve(&challenge, timeTaken, attemptNumber)
		}

		submission := models.Submission{
			ID:               uuid.NewString(),
			ExternalUserID:   externalUserID,
			ChallengeID:      challengeID,
			AnswerGiven:      given,
			IsCorrect:        correct,
			TimeTakenSeconds: timeTaken,
			AttemptNumber:    attemptNumber,
			PointsEarned:     points,
			XPEarned:         xp,
			SubmittedAt:      now,
		}
		if err := tx.Create(&submission).Error; err != nil {
			return fmt.Errorf("submission append failed: %w", err)
		}

		updates := map[string]interface{}{
			"attempts":       attemptNumber,
			"last_access_at": now,
		}
		if correct {
			updates["completed_at"] = now
			updates["progress"] = 100
		}
		if err := tx.Model(&models.ChallengeProgress{}).
			Where("id = ?", prog.ID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("progress update failed: %w", err)
		}

		result = &SubmissionResult{
			IsCorrect:        correct,
			PointsEarned:     points,
			XPEarned:         xp,
			TimeTakenSeconds: timeTaken,
			AttemptNumber:    attemptNumber,
			Message:          "Incorrect answer, try again.",
		}

		if correct {
			award, err := s.Ledger.AwardTx(tx, externalUserID, int64(points), int64(xp),
				fmt.Sprintf("lab_%s_solved", challenge.Slug))
			if err != nil {
				return err
			}
			result.Ledger = award
			result.Message = fmt.Sprintf("Correct! +%d points, +%d XP", points, xp)

			if err := touchLearner(tx, externalUserID, now, "challenges_solved"); err != nil {
				return fmt.Errorf("learner stats update failed: %w", err)
			}
			if err := bumpActivity(tx, externalUserID, now, (timeTaken+59)/60, 1, 1); err != nil {
				return fmt.Errorf("activity upsert failed: %w", err)
			}
		} else if err := bumpActivity(tx, externalUserID, now, (timeTaken+59)/60, 0, 0); err != nil {
			return fmt.Errorf("activity upsert failed: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.IsCorrect {
		log.Printf("🏁 Lab solved: %s → %s (attempt %d, +%dpts/+%dxp)",
			externalUserID, challenge.Slug, result.AttemptNumber, result.PointsEarned, result.XPEarned)
		go s.Ledger.AfterAward(externalUserID, result.Ledger)
	}
	return result, nil
}

// scoreSolve applies the reward formula: base + linear-decay time bonus,
// minus a flat per-attempt penalty, floored so every solve earns something.
func scoreSolve(ch *models.Challenge, timeTaken, attemptNumber int) (points, xp int) {
	timeBonus := 0
	if ch.TimeLimitSeconds > 0 && timeTaken <= ch.TimeLimitSeconds {
		// floor(basePoints * 0.3 * (limit - taken) / limit), full bonus at
		// taken=0 decaying to zero at taken=limit
		timeBonus = ch.BasePoints * 3 * (ch.TimeLimitSeconds - timeTaken) / (10 * ch.TimeLimitSeconds)
	}
	penalty := (attemptNumber - 1) * AttemptPenalty

	points = ch.BasePoints + timeBonus - penalty
	if points < MinPointsPerSolve {
		points = MinPointsPerSolve
	}
	xp = ch.BaseXP + timeBonus/2
	if xp < MinXPPerSolve {
		xp = MinXPPerSolve
	}
	return points, xp
}

// GetProgress returns the learner's progress row for one challenge, or
// ErrNotFound if they never opened it.
func (s *SubmissionService) GetProgress(externalUserID, challengeID string) (*models.ChallengeProgress, error) {
	var prog models.ChallengeProgress
	err := s.DB.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
		First(&prog).Error
	if err == gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("%w: no progress for challenge %s", ErrNotFound, challengeID)
	}
	if err != nil {
		return nil, err
	}
	return &prog, nil
}

// StartChallenge stamps startedAt for the timed bonus; safe to call twice.
func (s *SubmissionService) StartChallenge(externalUserID, challengeID string) (*models.ChallengeProgress, error) {
	var count int64
	if err := s.DB.Model(&models.Challenge{}).Where("id = ?", challengeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: challenge %s", ErrNotFound, challengeID)
	}

	now := time.Now().UTC()
	prog := models.ChallengeProgress{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		ChallengeID:    challengeID,
		StartedAt:      now,
		LastAccessAt:   now,
	}
	if err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}, {Name: "challenge_id"}},
		DoNothing: true,
	}).Create(&prog).Error; err != nil {
		return nil, err
	}

	var current models.ChallengeProgress
	if err := s.DB.Where("external_user_id = ? AND challenge_id = ?", externalUserID, challengeID).
		First(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}
