package domain

import "errors"

var (
	// ErrRowNotFound is returned when the user has no row in the backing store.
	ErrRowNotFound = errors.New("user row not found")
	// ErrInvalidCredentials is returned for unknown users or wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotLoggedIn is returned when an operation needs a live app session.
	ErrNotLoggedIn = errors.New("user not logged in")
	// ErrStageNotFound indicates an unknown stage ID.
	ErrStageNotFound = errors.New("stage not found")
	// ErrStageLocked indicates a battle report for a stage not yet unlocked.
	ErrStageLocked = errors.New("stage is locked")
	// ErrZeroTotal rejects a battle report with no questions in it.
	ErrZeroTotal = errors.New("reported total must be at least 1")
	// ErrTopicNotFound indicates an unknown mentor/subject/topic selection.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrNoQuestions rejects starting a drill over an empty item set.
	ErrNoQuestions = errors.New("no questions to train")
	// ErrNoActiveSession is returned when no drill session is running.
	ErrNoActiveSession = errors.New("no active training session")
	// ErrSessionFinished is returned for question access past the last item.
	ErrSessionFinished = errors.New("training session already finished")
	// ErrSessionRunning rejects finish-only operations mid-pass.
	ErrSessionRunning = errors.New("training session still running")
	// ErrAlreadyAnswered rejects a second answer for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrNotAnswered rejects advancing before the current question was answered.
	ErrNotAnswered = errors.New("current question not answered yet")
	// ErrNoMissedItems rejects a retry pass when nothing was missed.
	ErrNoMissedItems = errors.New("no missed questions to retry")
)
