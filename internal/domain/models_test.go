package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatsInvariantHolds(t *testing.T) {
	var s Stats
	calls := []struct{ correct, total int }{
		{7, 10}, {0, 3}, {5, 5}, {1, 1}, {0, 0},
	}
	for _, c := range calls {
		s.RecordBatch(c.correct, c.total)
		if s.TotalQuestions != s.TotalCorrect+s.TotalIncorrect {
			t.Fatalf("invariant broken after (%d/%d): %+v", c.correct, c.total, s)
		}
	}
	if s.TotalQuestions != 19 || s.TotalCorrect != 13 {
		t.Fatalf("unexpected totals: %+v", s)
	}
}

func TestRecordBatchClampsBadInput(t *testing.T) {
	var s Stats
	s.RecordBatch(12, 10) // correct > total
	if s.TotalQuestions != 10 || s.TotalCorrect != 10 || s.TotalIncorrect != 0 {
		t.Fatalf("expected clamp to (10,10,0), got %+v", s)
	}
	s.RecordBatch(-2, -5)
	if s.TotalQuestions != 10 {
		t.Fatalf("negative input should be a no-op, got %+v", s)
	}
}

func TestRecordSingle(t *testing.T) {
	var s Stats
	s.RecordSingle(true)
	s.RecordSingle(false)
	s.RecordSingle(false)
	if s.TotalQuestions != 3 || s.TotalCorrect != 1 || s.TotalIncorrect != 2 {
		t.Fatalf("unexpected totals: %+v", s)
	}
}

func TestAccuracyPercent(t *testing.T) {
	var s Stats
	if got := s.AccuracyPercent(); got != 0 {
		t.Fatalf("empty stats should be 0%%, got %v", got)
	}
	s.RecordBatch(7, 10)
	if got := s.AccuracyPercent(); got != 70 {
		t.Fatalf("expected 70%%, got %v", got)
	}
}

func TestStageJSONRoundTripBudgetPolicy(t *testing.T) {
	in := Stage{
		ID:         1,
		Name:       "Crixus",
		Difficulty: "Iniciante",
		Policy:     TimeAndErrorBudget{MaxDurationMinutes: 60, MaxErrors: 7},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Stage
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	policy, ok := out.Policy.(TimeAndErrorBudget)
	if !ok {
		t.Fatalf("expected budget policy, got %T", out.Policy)
	}
	if policy.MaxDurationMinutes != 60 || policy.MaxErrors != 7 {
		t.Fatalf("unexpected policy: %+v", policy)
	}
}

func TestStageJSONAccuracyPolicyAndMissingPolicy(t *testing.T) {
	var stage Stage
	if err := json.Unmarshal([]byte(`{"id":3,"nome":"Theokoles","min_aproveitamento":70}`), &stage); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if policy, ok := stage.Policy.(AccuracyThreshold); !ok || policy.MinPercent != 70 {
		t.Fatalf("expected 70%% threshold, got %#v", stage.Policy)
	}

	if err := json.Unmarshal([]byte(`{"id":4,"nome":"Sem Regra"}`), &stage); err == nil {
		t.Fatalf("expected error for stage without policy fields")
	}
}

func TestActivityRecordJSONUsesStoredLayout(t *testing.T) {
	rec := ActivityRecord{
		When:     time.Date(2026, 8, 28, 14, 30, 0, 0, time.Local),
		Kind:     KindBattle,
		Label:    "vs Crixus",
		Summary:  "Vitória (7/10)",
		Duration: "45 min",
		Counts:   &AnswerCounts{Correct: 7, Total: 10},
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["data"] != "28/08/2026 14:30" {
		t.Fatalf("unexpected data field: %v", raw["data"])
	}
	if raw["tipo"] != "Batalha" || raw["resultado"] != "Vitória (7/10)" {
		t.Fatalf("unexpected fields: %v", raw)
	}

	var back ActivityRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !back.When.Equal(rec.When) || back.Counts == nil || back.Counts.Correct != 7 {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestActivityRecordToleratesBadDate(t *testing.T) {
	var rec ActivityRecord
	if err := json.Unmarshal([]byte(`{"data":"not a date","tipo":"Batalha"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !rec.When.IsZero() {
		t.Fatalf("expected zero time, got %v", rec.When)
	}
	if rec.SameDay(time.Now()) {
		t.Fatalf("zero-time record should not match any day")
	}
}

func TestEnsureDefaultsPatchesEachPieceIndependently(t *testing.T) {
	p := &UserProgress{Stats: Stats{TotalQuestions: 5, TotalCorrect: 5}}
	p.EnsureDefaults()
	if p.Stage.HighestUnlocked != 1 {
		t.Fatalf("expected stage pointer 1, got %d", p.Stage.HighestUnlocked)
	}
	if p.Stage.Cleared == nil || p.Activity == nil {
		t.Fatalf("expected non-nil slices")
	}
	if p.Stats.TotalQuestions != 5 {
		t.Fatalf("stats should be untouched, got %+v", p.Stats)
	}
}
