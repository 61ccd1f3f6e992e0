package app

import (
	"errors"
	"testing"

	"arena-quiz-service/internal/domain"
)

func budgetStage() domain.Stage {
	return domain.Stage{
		ID:     1,
		Name:   "Crixus",
		Policy: domain.TimeAndErrorBudget{MaxDurationMinutes: 60, MaxErrors: 7},
	}
}

func TestStageStatus(t *testing.T) {
	progress := domain.StageProgress{HighestUnlocked: 3, Cleared: []int{1, 2}}

	cases := []struct {
		stageID int
		want    domain.StageStatus
	}{
		{1, domain.StageCompleted},
		{2, domain.StageCompleted},
		{3, domain.StageCurrent},
		{4, domain.StageLocked},
	}
	for _, c := range cases {
		if got := StageStatus(progress, c.stageID); got != c.want {
			t.Fatalf("stage %d: expected %s, got %s", c.stageID, c.want, got)
		}
	}
}

func TestClearedStageNeverShowsCurrent(t *testing.T) {
	// A revisited stage equal to the pointer renders completed, not current.
	progress := domain.StageProgress{HighestUnlocked: 2, Cleared: []int{1, 2}}
	if got := StageStatus(progress, 2); got != domain.StageCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

func TestEvaluateAttemptBudgetWin(t *testing.T) {
	outcome, err := EvaluateAttempt(budgetStage(), domain.Attempt{Total: 20, Correct: 15, DurationMinutes: 45})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !outcome.Won || len(outcome.Reasons) != 0 {
		t.Fatalf("expected clean win, got %+v", outcome)
	}
}

func TestEvaluateAttemptBudgetLossListsEachViolatedBound(t *testing.T) {
	outcome, err := EvaluateAttempt(budgetStage(), domain.Attempt{Total: 20, Correct: 15, DurationMinutes: 90})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if outcome.Won {
		t.Fatalf("expected loss")
	}
	if len(outcome.Reasons) != 1 || outcome.Reasons[0] != "Levou 90 min (Máx: 60)" {
		t.Fatalf("unexpected reasons: %v", outcome.Reasons)
	}

	outcome, err = EvaluateAttempt(budgetStage(), domain.Attempt{Total: 20, Correct: 10, DurationMinutes: 90})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(outcome.Reasons) != 2 {
		t.Fatalf("expected both bounds listed, got %v", outcome.Reasons)
	}
}

func TestEvaluateAttemptAccuracyThreshold(t *testing.T) {
	stage := domain.Stage{ID: 3, Policy: domain.AccuracyThreshold{MinPercent: 70}}

	outcome, err := EvaluateAttempt(stage, domain.Attempt{Total: 10, Correct: 7})
	if err != nil || !outcome.Won {
		t.Fatalf("70%% should pass at the boundary: %+v err=%v", outcome, err)
	}

	outcome, err = EvaluateAttempt(stage, domain.Attempt{Total: 10, Correct: 6})
	if err != nil || outcome.Won {
		t.Fatalf("60%% should fail: %+v err=%v", outcome, err)
	}
	if len(outcome.Reasons) != 1 {
		t.Fatalf("expected one reason, got %v", outcome.Reasons)
	}
}

func TestEvaluateAttemptAccuracyClampsReportedCorrect(t *testing.T) {
	stage := domain.Stage{ID: 3, Policy: domain.AccuracyThreshold{MinPercent: 70}}

	// Over-reported correct caps at 100%, never beyond.
	outcome, err := EvaluateAttempt(stage, domain.Attempt{Total: 10, Correct: 15})
	if err != nil || !outcome.Won {
		t.Fatalf("expected capped 100%% win: %+v err=%v", outcome, err)
	}

	outcome, err = EvaluateAttempt(stage, domain.Attempt{Total: 10, Correct: -3})
	if err != nil || outcome.Won {
		t.Fatalf("negative correct should floor at 0%%: %+v err=%v", outcome, err)
	}
	if len(outcome.Reasons) != 1 || outcome.Reasons[0] != "Aproveitamento de 0.0% (Mín: 70.0%)" {
		t.Fatalf("unexpected reasons: %v", outcome.Reasons)
	}
}

func TestEvaluateAttemptRejectsZeroTotal(t *testing.T) {
	if _, err := EvaluateAttempt(budgetStage(), domain.Attempt{Total: 0}); !errors.Is(err, domain.ErrZeroTotal) {
		t.Fatalf("expected ErrZeroTotal, got %v", err)
	}
}

func TestApplyResultAdvancesPointerByExactlyOne(t *testing.T) {
	progress := domain.StageProgress{HighestUnlocked: 1, Cleared: []int{}}

	ApplyResult(&progress, 1, true)
	if progress.HighestUnlocked != 2 || !progress.IsCleared(1) {
		t.Fatalf("expected unlock of stage 2, got %+v", progress)
	}
}

func TestApplyResultIdempotentReClear(t *testing.T) {
	progress := domain.StageProgress{HighestUnlocked: 2, Cleared: []int{1}}

	ApplyResult(&progress, 1, true)
	if progress.HighestUnlocked != 2 || len(progress.Cleared) != 1 {
		t.Fatalf("re-clear must be a no-op, got %+v", progress)
	}
}

func TestApplyResultLossNeverMutates(t *testing.T) {
	progress := domain.StageProgress{HighestUnlocked: 2, Cleared: []int{1}}

	ApplyResult(&progress, 2, false)
	if progress.HighestUnlocked != 2 || len(progress.Cleared) != 1 {
		t.Fatalf("loss must not change state, got %+v", progress)
	}
}

func TestPointerIsMonotonic(t *testing.T) {
	progress := domain.StageProgress{HighestUnlocked: 1, Cleared: []int{}}
	wins := []struct {
		stageID int
		won     bool
	}{
		{1, true}, {1, false}, {1, true}, {2, false}, {2, true}, {1, true},
	}
	prev := progress.HighestUnlocked
	for _, w := range wins {
		ApplyResult(&progress, w.stageID, w.won)
		if progress.HighestUnlocked < prev {
			t.Fatalf("pointer decreased: %d -> %d", prev, progress.HighestUnlocked)
		}
		if progress.HighestUnlocked > prev+1 {
			t.Fatalf("pointer jumped: %d -> %d", prev, progress.HighestUnlocked)
		}
		prev = progress.HighestUnlocked
	}
	if progress.HighestUnlocked != 3 {
		t.Fatalf("expected pointer at 3, got %d", progress.HighestUnlocked)
	}
}
