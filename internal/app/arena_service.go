package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"arena-quiz-service/internal/domain"
)

// Authenticator checks credentials against the user directory. The service
// treats it as opaque and neither retries nor caches credentials.
type Authenticator interface {
	Authenticate(username, password string) (domain.Identity, error)
}

// CatalogRepository loads the static reference catalogs (from cache or a
// backing store).
type CatalogRepository interface {
	Stages(ctx context.Context) ([]domain.Stage, error)
	QuestionBank(ctx context.Context) (domain.QuestionBank, error)
}

// ArenaService holds the live app sessions and drives the progression and
// drill use cases. Every mutating operation saves the user's progress
// immediately so a crash loses at most the last unsaved action.
type ArenaService struct {
	auth        Authenticator
	catalog     CatalogRepository
	persistence *Persistence
	now         func() time.Time
	newRand     func() *rand.Rand

	mu       sync.RWMutex
	sessions map[string]*AppSession
}

// AppSession is the per-user live state: the loaded progress aggregate, its
// row handle, the sync status, and at most one running drill session.
type AppSession struct {
	mu       sync.Mutex
	identity domain.Identity
	progress *domain.UserProgress
	row      domain.RowHandle
	status   domain.SyncStatus

	quiz   *QuizSession
	source []domain.QuestionItem
}

func NewArenaService(auth Authenticator, catalog CatalogRepository, store RowStore) *ArenaService {
	return NewArenaServiceWithClock(auth, catalog, store, time.Now, time.Now().UnixNano())
}

// NewArenaServiceWithClock fixes the clock and shuffle seed, for
// deterministic tests. Each newRand call derives a fresh source from the
// seed stream so consecutive shuffles produce different permutations.
func NewArenaServiceWithClock(auth Authenticator, catalog CatalogRepository, store RowStore, now func() time.Time, seed int64) *ArenaService {
	var mu sync.Mutex
	seeds := rand.New(rand.NewSource(seed))
	return &ArenaService{
		auth:        auth,
		catalog:     catalog,
		persistence: NewPersistence(store),
		now:         now,
		newRand: func() *rand.Rand {
			mu.Lock()
			next := seeds.Int63()
			mu.Unlock()
			return rand.New(rand.NewSource(next))
		},
		sessions: make(map[string]*AppSession),
	}
}

// UserSnapshot is the sidebar view: identity, sync state and global totals.
type UserSnapshot struct {
	Identity domain.Identity   `json:"identity"`
	Status   domain.SyncStatus `json:"status"`
	Stats    domain.Stats      `json:"stats"`
	Accuracy float64           `json:"aproveitamento"`
}

// StageView pairs a catalog stage with its status for the user.
type StageView struct {
	Stage  domain.Stage       `json:"stage"`
	Status domain.StageStatus `json:"status"`
}

// BattleReport is the outcome of one reported battle.
type BattleReport struct {
	Outcome  domain.AttemptOutcome `json:"outcome"`
	Progress domain.StageProgress  `json:"progresso"`
	Stats    domain.Stats          `json:"stats"`
}

// QuestionView shows the current drill question without its key; the answer
// and explanation are only revealed by submitting.
type QuestionView struct {
	Position int    `json:"position"`
	Total    int    `json:"total"`
	Prompt   string `json:"texto"`
}

// AnswerFeedback is the reveal after one submitted answer.
type AnswerFeedback struct {
	Correct     bool          `json:"correct"`
	Answer      domain.Answer `json:"gabarito"`
	Explanation string        `json:"explicacao"`
}

// SessionView describes the running drill pass.
type SessionView struct {
	Label  string             `json:"label"`
	Mode   domain.SessionMode `json:"mode"`
	Total  int                `json:"total"`
	Cursor int                `json:"cursor"`
}

// SessionSummary is returned once a pass finishes.
type SessionSummary struct {
	Label  string              `json:"label"`
	Mode   domain.SessionMode  `json:"mode"`
	Score  domain.SessionScore `json:"score"`
	Missed int                 `json:"erradas"`
}

// AdvanceResult either moves to the next question or closes the pass.
type AdvanceResult struct {
	Finished bool            `json:"finished"`
	Next     *QuestionView   `json:"next,omitempty"`
	Summary  *SessionSummary `json:"summary,omitempty"`
}

// Login authenticates against the directory and loads the user's progress.
// Persistence failures do not fail the login; the user plays on in-memory
// defaults with an offline status.
func (s *ArenaService) Login(ctx context.Context, username, password string) (UserSnapshot, error) {
	identity, err := s.auth.Authenticate(username, password)
	if err != nil {
		return UserSnapshot{}, err
	}

	progress, row, status := s.persistence.Load(ctx, identity.UserKey)
	session := &AppSession{
		identity: identity,
		progress: progress,
		row:      row,
		status:   status,
	}

	s.mu.Lock()
	s.sessions[identity.UserKey] = session
	s.mu.Unlock()

	return snapshot(session), nil
}

// Logout drops the live session. Progress already saved stays saved.
func (s *ArenaService) Logout(userKey string) {
	s.mu.Lock()
	delete(s.sessions, userKey)
	s.mu.Unlock()
}

// Snapshot returns the sidebar view for a logged-in user.
func (s *ArenaService) Snapshot(userKey string) (UserSnapshot, error) {
	session, err := s.session(userKey)
	if err != nil {
		return UserSnapshot{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return snapshot(session), nil
}

// StageOverview lists every stage with its lock/current/completed status.
func (s *ArenaService) StageOverview(ctx context.Context, userKey string) ([]StageView, error) {
	session, err := s.session(userKey)
	if err != nil {
		return nil, err
	}
	stages, err := s.catalog.Stages(ctx)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	views := make([]StageView, 0, len(stages))
	for _, stage := range stages {
		views = append(views, StageView{Stage: stage, Status: StageStatus(session.progress.Stage, stage.ID)})
	}
	return views, nil
}

// ReportBattle evaluates a self-reported attempt against the stage's pass
// policy, folds the result into progress and stats, appends one history
// record and saves.
func (s *ArenaService) ReportBattle(ctx context.Context, userKey string, stageID int, attempt domain.Attempt) (BattleReport, error) {
	session, err := s.session(userKey)
	if err != nil {
		return BattleReport{}, err
	}
	stage, err := s.stage(ctx, stageID)
	if err != nil {
		return BattleReport{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if StageStatus(session.progress.Stage, stageID) == domain.StageLocked {
		return BattleReport{}, domain.ErrStageLocked
	}
	outcome, err := EvaluateAttempt(stage, attempt)
	if err != nil {
		return BattleReport{}, err
	}

	correct := attempt.Correct
	if correct > attempt.Total {
		correct = attempt.Total
	}
	ApplyResult(&session.progress.Stage, stageID, outcome.Won)
	session.progress.Stats.RecordBatch(correct, attempt.Total)

	verdict := "Derrota"
	if outcome.Won {
		verdict = "Vitória"
	}
	AppendActivity(session.progress, domain.ActivityRecord{
		When:     s.now(),
		Kind:     domain.KindBattle,
		Label:    "vs " + stage.Name,
		Summary:  fmt.Sprintf("%s (%d/%d)", verdict, correct, attempt.Total),
		Duration: fmt.Sprintf("%d min", attempt.DurationMinutes),
		Counts:   &domain.AnswerCounts{Correct: correct, Total: attempt.Total},
	})

	s.persistence.Save(ctx, session.row, session.progress)
	return BattleReport{
		Outcome:  outcome,
		Progress: session.progress.Stage,
		Stats:    session.progress.Stats,
	}, nil
}

// QuestionBank exposes the mentor catalog for the selection screens.
func (s *ArenaService) QuestionBank(ctx context.Context) (domain.QuestionBank, error) {
	return s.catalog.QuestionBank(ctx)
}

// StartTraining begins a drill over one mentor/subject/topic selection.
// Any previous drill session for the user is discarded.
func (s *ArenaService) StartTraining(ctx context.Context, userKey, mentorKey, subject, topic string) (SessionView, error) {
	session, err := s.session(userKey)
	if err != nil {
		return SessionView{}, err
	}
	bank, err := s.catalog.QuestionBank(ctx)
	if err != nil {
		return SessionView{}, err
	}
	mentor, ok := bank[mentorKey]
	if !ok {
		return SessionView{}, domain.ErrTopicNotFound
	}
	topics, ok := mentor.Subjects[subject]
	if !ok {
		return SessionView{}, domain.ErrTopicNotFound
	}
	items, ok := topics[topic]
	if !ok {
		return SessionView{}, domain.ErrTopicNotFound
	}

	label := fmt.Sprintf("%s — %s", subject, topic)
	quiz, err := NewQuizSession(label, items, s.newRand())
	if err != nil {
		return SessionView{}, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	session.quiz = quiz
	session.source = items
	return sessionView(quiz), nil
}

// CurrentQuestion shows the question under the cursor.
func (s *ArenaService) CurrentQuestion(userKey string) (QuestionView, error) {
	session, err := s.session(userKey)
	if err != nil {
		return QuestionView{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	quiz, err := activeQuiz(session)
	if err != nil {
		return QuestionView{}, err
	}
	item, err := quiz.Current()
	if err != nil {
		return QuestionView{}, err
	}
	return QuestionView{Position: quiz.Cursor() + 1, Total: quiz.Len(), Prompt: item.Prompt}, nil
}

// SubmitAnswer checks the user's choice, records it into the global stats
// and saves. The reveal carries the key and explanation.
func (s *ArenaService) SubmitAnswer(ctx context.Context, userKey string, choice domain.Answer) (AnswerFeedback, error) {
	session, err := s.session(userKey)
	if err != nil {
		return AnswerFeedback{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	quiz, err := activeQuiz(session)
	if err != nil {
		return AnswerFeedback{}, err
	}
	item, err := quiz.Current()
	if err != nil {
		return AnswerFeedback{}, err
	}
	correct, err := quiz.Submit(choice)
	if err != nil {
		return AnswerFeedback{}, err
	}

	session.progress.Stats.RecordSingle(correct)
	s.persistence.Save(ctx, session.row, session.progress)
	return AnswerFeedback{Correct: correct, Answer: item.Answer, Explanation: item.Explanation}, nil
}

// Advance moves past an answered question. Finishing the pass appends one
// history record summarizing it and saves.
func (s *ArenaService) Advance(ctx context.Context, userKey string) (AdvanceResult, error) {
	session, err := s.session(userKey)
	if err != nil {
		return AdvanceResult{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	quiz, err := activeQuiz(session)
	if err != nil {
		return AdvanceResult{}, err
	}

	finished, err := quiz.Advance()
	if err != nil {
		return AdvanceResult{}, err
	}
	if !finished {
		item, err := quiz.Current()
		if err != nil {
			return AdvanceResult{}, err
		}
		next := QuestionView{Position: quiz.Cursor() + 1, Total: quiz.Len(), Prompt: item.Prompt}
		return AdvanceResult{Next: &next}, nil
	}

	score, err := quiz.Score()
	if err != nil {
		return AdvanceResult{}, err
	}
	kind := "Treino"
	if quiz.Mode() == domain.ModeRetry {
		kind = "Revisão"
	}
	AppendActivity(session.progress, domain.ActivityRecord{
		When:     s.now(),
		Kind:     domain.KindQuiz,
		Label:    quiz.Label(),
		Summary:  fmt.Sprintf("%s (%d/%d)", kind, score.Correct, score.Total),
		Duration: "-",
		Counts:   &domain.AnswerCounts{Correct: score.Correct, Total: score.Total},
	})
	s.persistence.Save(ctx, session.row, session.progress)

	summary := SessionSummary{Label: quiz.Label(), Mode: quiz.Mode(), Score: score, Missed: score.Missed}
	return AdvanceResult{Finished: true, Summary: &summary}, nil
}

// RestartFresh reshuffles the full source selection into a new normal pass.
func (s *ArenaService) RestartFresh(userKey string) (SessionView, error) {
	session, err := s.session(userKey)
	if err != nil {
		return SessionView{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	quiz, err := activeQuiz(session)
	if err != nil {
		return SessionView{}, err
	}
	if !quiz.Finished() {
		return SessionView{}, domain.ErrSessionRunning
	}
	fresh, err := NewQuizSession(quiz.Label(), session.source, s.newRand())
	if err != nil {
		return SessionView{}, err
	}
	session.quiz = fresh
	return sessionView(fresh), nil
}

// RestartMissed replays only the questions missed in the finished pass.
func (s *ArenaService) RestartMissed(userKey string) (SessionView, error) {
	session, err := s.session(userKey)
	if err != nil {
		return SessionView{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	quiz, err := activeQuiz(session)
	if err != nil {
		return SessionView{}, err
	}
	if err := quiz.RestartWithMissed(); err != nil {
		return SessionView{}, err
	}
	return sessionView(quiz), nil
}

// EndTraining discards the drill session and returns to selection.
func (s *ArenaService) EndTraining(userKey string) error {
	session, err := s.session(userKey)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	session.quiz = nil
	session.source = nil
	return nil
}

// History lists the user's activity most-recent-first.
func (s *ArenaService) History(userKey string) ([]domain.ActivityRecord, error) {
	session, err := s.session(userKey)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return History(session.progress), nil
}

// DailyStats aggregates the user's activity for one calendar day.
func (s *ArenaService) DailyStats(userKey string, day time.Time) (domain.DailyStats, error) {
	session, err := s.session(userKey)
	if err != nil {
		return domain.DailyStats{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return DailyStats(session.progress.Activity, day), nil
}

func (s *ArenaService) session(userKey string) (*AppSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userKey]
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}
	return session, nil
}

func (s *ArenaService) stage(ctx context.Context, stageID int) (domain.Stage, error) {
	stages, err := s.catalog.Stages(ctx)
	if err != nil {
		return domain.Stage{}, err
	}
	for _, stage := range stages {
		if stage.ID == stageID {
			return stage, nil
		}
	}
	return domain.Stage{}, domain.ErrStageNotFound
}

func activeQuiz(session *AppSession) (*QuizSession, error) {
	if session.quiz == nil {
		return nil, domain.ErrNoActiveSession
	}
	return session.quiz, nil
}

func sessionView(quiz *QuizSession) SessionView {
	return SessionView{
		Label:  quiz.Label(),
		Mode:   quiz.Mode(),
		Total:  quiz.Len(),
		Cursor: quiz.Cursor(),
	}
}

func snapshot(session *AppSession) UserSnapshot {
	return UserSnapshot{
		Identity: session.identity,
		Status:   session.status,
		Stats:    session.progress.Stats,
		Accuracy: session.progress.Stats.AccuracyPercent(),
	}
}
