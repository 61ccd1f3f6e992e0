package app

import (
	"testing"
	"time"

	"arena-quiz-service/internal/domain"
)

func TestDailyStatsUsesStructuredCounts(t *testing.T) {
	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	records := []domain.ActivityRecord{
		{When: day, Summary: "Vitória (7/10)", Counts: &domain.AnswerCounts{Correct: 7, Total: 10}},
		{When: day.Add(2 * time.Hour), Summary: "Treino (4/5)", Counts: &domain.AnswerCounts{Correct: 4, Total: 5}},
		{When: day.AddDate(0, 0, -1), Summary: "Vitória (9/9)", Counts: &domain.AnswerCounts{Correct: 9, Total: 9}},
	}

	got := DailyStats(records, day)
	want := domain.DailyStats{Total: 15, Correct: 11, Incorrect: 4}
	if got.Total != want.Total || got.Correct != want.Correct || got.Incorrect != want.Incorrect {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestDailyStatsFallsBackToSummaryParsing(t *testing.T) {
	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	records := []domain.ActivityRecord{
		// Legacy record without structured counts.
		{When: day, Summary: "Vitória (7/10)"},
		// Unparseable record must be skipped, not fail the computation.
		{When: day, Summary: "Treino finalizado"},
	}

	got := DailyStats(records, day)
	if got.Total != 10 || got.Correct != 7 || got.Incorrect != 3 {
		t.Fatalf("unexpected daily stats: %+v", got)
	}
	if got.Percent != 70 {
		t.Fatalf("expected 70%%, got %v", got.Percent)
	}
}

func TestDailyStatsEmptyDay(t *testing.T) {
	got := DailyStats(nil, time.Now())
	if got.Total != 0 || got.Percent != 0 {
		t.Fatalf("expected zeroes, got %+v", got)
	}
}

func TestHistoryIsMostRecentFirst(t *testing.T) {
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	progress := domain.NewUserProgress()
	for i := 0; i < 3; i++ {
		AppendActivity(progress, domain.ActivityRecord{When: base.Add(time.Duration(i) * time.Hour), Label: string(rune('a' + i))})
	}

	got := History(progress)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Label != "c" || got[2].Label != "a" {
		t.Fatalf("expected reverse order, got %v %v %v", got[0].Label, got[1].Label, got[2].Label)
	}
	// Stored order must be untouched.
	if progress.Activity[0].Label != "a" {
		t.Fatalf("stored order mutated: %v", progress.Activity[0].Label)
	}
}

func TestHistoryOnFiltersByDay(t *testing.T) {
	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.Local)
	progress := domain.NewUserProgress()
	AppendActivity(progress, domain.ActivityRecord{When: day, Label: "today"})
	AppendActivity(progress, domain.ActivityRecord{When: day.AddDate(0, 0, -1), Label: "yesterday"})

	got := HistoryOn(progress, day)
	if len(got) != 1 || got[0].Label != "today" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
}
