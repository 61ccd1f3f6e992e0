package app

import (
	"fmt"

	"arena-quiz-service/internal/domain"
)

// StageStatus classifies one stage against the user's progress. A stage that
// was cleared and revisited shows as completed, never as current.
func StageStatus(progress domain.StageProgress, stageID int) domain.StageStatus {
	if progress.IsCleared(stageID) {
		return domain.StageCompleted
	}
	if stageID > progress.HighestUnlocked {
		return domain.StageLocked
	}
	if stageID == progress.HighestUnlocked {
		return domain.StageCurrent
	}
	// Below the pointer but not in the cleared set should not happen with
	// documents this service wrote; treat it as replayable.
	return domain.StageCompleted
}

// EvaluateAttempt applies the stage's pass policy to a reported attempt.
// The reported total must be at least 1; the caller's form enforces that,
// this rechecks it.
func EvaluateAttempt(stage domain.Stage, attempt domain.Attempt) (domain.AttemptOutcome, error) {
	if attempt.Total < 1 {
		return domain.AttemptOutcome{}, domain.ErrZeroTotal
	}

	switch policy := stage.Policy.(type) {
	case domain.TimeAndErrorBudget:
		var reasons []string
		if errs := attempt.Errors(); errs > policy.MaxErrors {
			reasons = append(reasons, fmt.Sprintf("Cometeu %d erros (Máx: %d)", errs, policy.MaxErrors))
		}
		if attempt.DurationMinutes > policy.MaxDurationMinutes {
			reasons = append(reasons, fmt.Sprintf("Levou %d min (Máx: %d)", attempt.DurationMinutes, policy.MaxDurationMinutes))
		}
		return domain.AttemptOutcome{Won: len(reasons) == 0, Reasons: reasons}, nil
	case domain.AccuracyThreshold:
		correct := attempt.Correct
		if correct < 0 {
			correct = 0
		}
		if correct > attempt.Total {
			correct = attempt.Total
		}
		accuracy := 100 * float64(correct) / float64(attempt.Total)
		if accuracy >= policy.MinPercent {
			return domain.AttemptOutcome{Won: true}, nil
		}
		reason := fmt.Sprintf("Aproveitamento de %.1f%% (Mín: %.1f%%)", accuracy, policy.MinPercent)
		return domain.AttemptOutcome{Won: false, Reasons: []string{reason}}, nil
	default:
		return domain.AttemptOutcome{}, fmt.Errorf("stage %d: unknown pass policy %T", stage.ID, stage.Policy)
	}
}

// ApplyResult folds a battle verdict into the stage progress. Winning the
// current stage bumps the unlock pointer by exactly one; winning an already
// cleared stage changes nothing; a loss never revokes anything.
func ApplyResult(progress *domain.StageProgress, stageID int, won bool) {
	if !won || progress.IsCleared(stageID) {
		return
	}
	progress.Cleared = append(progress.Cleared, stageID)
	if stageID == progress.HighestUnlocked {
		progress.HighestUnlocked++
	}
}
