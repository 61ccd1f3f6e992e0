package app

import (
	"regexp"
	"strconv"
	"time"

	"arena-quiz-service/internal/domain"
)

// summaryCountsRe extracts "correct/total" out of legacy display summaries
// like "Vitória (7/10)". Records written by this service carry structured
// counts and never go through the regex.
var summaryCountsRe = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)

// DailyStats aggregates the activity written on the given calendar day.
// Records without structured counts fall back to parsing the display
// summary; records matching neither are skipped rather than failing the
// whole computation.
func DailyStats(records []domain.ActivityRecord, day time.Time) domain.DailyStats {
	var out domain.DailyStats
	for _, rec := range records {
		if !rec.SameDay(day) {
			continue
		}
		correct, total, ok := recordCounts(rec)
		if !ok {
			continue
		}
		out.Total += total
		out.Correct += correct
		out.Incorrect += total - correct
	}
	if out.Total > 0 {
		out.Percent = 100 * float64(out.Correct) / float64(out.Total)
	}
	return out
}

func recordCounts(rec domain.ActivityRecord) (correct, total int, ok bool) {
	if rec.Counts != nil {
		if rec.Counts.Total < rec.Counts.Correct || rec.Counts.Total < 0 {
			return 0, 0, false
		}
		return rec.Counts.Correct, rec.Counts.Total, true
	}
	m := summaryCountsRe.FindStringSubmatch(rec.Summary)
	if m == nil {
		return 0, 0, false
	}
	correct, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || correct > total {
		return 0, 0, false
	}
	return correct, total, true
}
