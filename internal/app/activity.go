package app

import (
	"time"

	"arena-quiz-service/internal/domain"
)

// AppendActivity adds one record to the end of the history. Insertion order
// is the only order kept; timestamps are caller-supplied and not verified.
func AppendActivity(progress *domain.UserProgress, rec domain.ActivityRecord) {
	progress.Activity = append(progress.Activity, rec)
}

// History returns the activity most-recent-first without touching the
// stored order.
func History(progress *domain.UserProgress) []domain.ActivityRecord {
	out := make([]domain.ActivityRecord, len(progress.Activity))
	for i, rec := range progress.Activity {
		out[len(out)-1-i] = rec
	}
	return out
}

// HistoryOn filters the history to records written on the given day,
// most-recent-first.
func HistoryOn(progress *domain.UserProgress, day time.Time) []domain.ActivityRecord {
	var out []domain.ActivityRecord
	for i := len(progress.Activity) - 1; i >= 0; i-- {
		if progress.Activity[i].SameDay(day) {
			out = append(out, progress.Activity[i])
		}
	}
	return out
}
