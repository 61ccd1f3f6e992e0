package app

import (
	"math/rand"

	"arena-quiz-service/internal/domain"
)

// QuizSession is one drill run over a shuffled queue of true/false
// questions. It is transient state: it lives only while the user trains and
// is never persisted. The session never mutates the catalog items it holds.
type QuizSession struct {
	label    string
	queue    []domain.QuestionItem
	cursor   int
	missed   []domain.QuestionItem
	mode     domain.SessionMode
	answered bool
	rnd      *rand.Rand
}

// NewQuizSession shuffles a copy of items into a fresh normal-mode run.
// An empty item set is rejected before the session ever starts.
func NewQuizSession(label string, items []domain.QuestionItem, rnd *rand.Rand) (*QuizSession, error) {
	if len(items) == 0 {
		return nil, domain.ErrNoQuestions
	}
	queue := make([]domain.QuestionItem, len(items))
	copy(queue, items)
	rnd.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})
	return &QuizSession{
		label: label,
		queue: queue,
		mode:  domain.ModeNormal,
		rnd:   rnd,
	}, nil
}

// Label is the subject/topic description used for the history entry.
func (s *QuizSession) Label() string { return s.label }

// Mode reports whether this pass is a fresh run or a retry over misses.
func (s *QuizSession) Mode() domain.SessionMode { return s.mode }

// Len is the queue length of the current pass.
func (s *QuizSession) Len() int { return len(s.queue) }

// Cursor is the 0-based position of the current question.
func (s *QuizSession) Cursor() int { return s.cursor }

// Finished reports whether the cursor moved past the last question.
func (s *QuizSession) Finished() bool { return s.cursor >= len(s.queue) }

// Current returns the question under the cursor. A finished session has no
// current question; stale data is never returned.
func (s *QuizSession) Current() (domain.QuestionItem, error) {
	if s.Finished() {
		return domain.QuestionItem{}, domain.ErrSessionFinished
	}
	return s.queue[s.cursor], nil
}

// Submit checks the choice against the current question's key. Each cursor
// position accepts exactly one answer; the guard replaces the original UI's
// trick of hiding the answer buttons after the reveal. A miss is recorded in
// the missed set at most once per item.
func (s *QuizSession) Submit(choice domain.Answer) (bool, error) {
	if s.Finished() {
		return false, domain.ErrSessionFinished
	}
	if s.answered {
		return false, domain.ErrAlreadyAnswered
	}
	s.answered = true

	item := s.queue[s.cursor]
	if choice == item.Answer {
		return true, nil
	}
	if !s.inMissed(item) {
		s.missed = append(s.missed, item)
	}
	return false, nil
}

// Advance moves to the next question after the current one was answered.
// It reports whether the move finished the pass.
func (s *QuizSession) Advance() (finished bool, err error) {
	if s.Finished() {
		return false, domain.ErrSessionFinished
	}
	if !s.answered {
		return false, domain.ErrNotAnswered
	}
	s.cursor++
	s.answered = false
	return s.Finished(), nil
}

// Missed returns a copy of the items missed during this pass.
func (s *QuizSession) Missed() []domain.QuestionItem {
	out := make([]domain.QuestionItem, len(s.missed))
	copy(out, s.missed)
	return out
}

// MissedCount is the number of distinct items missed during this pass.
func (s *QuizSession) MissedCount() int { return len(s.missed) }

// Score summarizes a finished pass.
func (s *QuizSession) Score() (domain.SessionScore, error) {
	if !s.Finished() {
		return domain.SessionScore{}, domain.ErrSessionRunning
	}
	return domain.SessionScore{
		Total:   len(s.queue),
		Correct: len(s.queue) - len(s.missed),
		Missed:  len(s.missed),
	}, nil
}

// RestartWithMissed turns the missed set into the next queue, in the order
// the misses happened (no reshuffle), and begins a retry pass.
func (s *QuizSession) RestartWithMissed() error {
	if !s.Finished() {
		return domain.ErrSessionRunning
	}
	if len(s.missed) == 0 {
		return domain.ErrNoMissedItems
	}
	s.queue = s.missed
	s.missed = nil
	s.cursor = 0
	s.answered = false
	s.mode = domain.ModeRetry
	return nil
}

func (s *QuizSession) inMissed(item domain.QuestionItem) bool {
	for _, m := range s.missed {
		if m.ID == item.ID {
			return true
		}
	}
	return false
}
