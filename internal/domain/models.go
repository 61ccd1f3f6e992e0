package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Stats holds the running answer totals for one user. The JSON field names
// match the documents already stored for existing users.
type Stats struct {
	TotalQuestions int `json:"total_questoes"`
	TotalCorrect   int `json:"total_acertos"`
	TotalIncorrect int `json:"total_erros"`
}

// RecordBatch folds a reported batch of answers into the totals. Incorrect
// answers are derived, never trusted: correct is clamped into [0, total] so
// the totals stay consistent even for a sloppy caller.
func (s *Stats) RecordBatch(correct, total int) {
	if total < 0 {
		total = 0
	}
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}
	s.TotalQuestions += total
	s.TotalCorrect += correct
	s.TotalIncorrect += total - correct
}

// RecordSingle folds one flashcard answer into the totals.
func (s *Stats) RecordSingle(wasCorrect bool) {
	if wasCorrect {
		s.RecordBatch(1, 1)
	} else {
		s.RecordBatch(0, 1)
	}
}

// AccuracyPercent is the overall hit rate, 0 when nothing was answered yet.
func (s Stats) AccuracyPercent() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return 100 * float64(s.TotalCorrect) / float64(s.TotalQuestions)
}

// StageProgress tracks how far a user advanced through the ordered stage
// list. HighestUnlocked is the lowest stage not yet cleared; Cleared keeps
// the IDs of every stage won at least once, in the order they were won.
type StageProgress struct {
	HighestUnlocked int   `json:"fase_maxima_desbloqueada"`
	Cleared         []int `json:"fases_vencidas"`
}

// IsCleared reports whether the stage was won at least once.
func (p StageProgress) IsCleared(stageID int) bool {
	for _, id := range p.Cleared {
		if id == stageID {
			return true
		}
	}
	return false
}

// StageStatus classifies a stage relative to the user's progress.
type StageStatus string

const (
	StageLocked    StageStatus = "locked"
	StageCurrent   StageStatus = "current"
	StageCompleted StageStatus = "completed"
)

// PassPolicy decides whether a reported attempt beats a stage. Exactly one
// of the two variants applies per stage.
type PassPolicy interface {
	isPassPolicy()
}

// TimeAndErrorBudget passes an attempt that stays within both an error
// budget and a time budget.
type TimeAndErrorBudget struct {
	MaxDurationMinutes int
	MaxErrors          int
}

// AccuracyThreshold passes an attempt whose hit rate meets a minimum percent.
type AccuracyThreshold struct {
	MinPercent float64
}

func (TimeAndErrorBudget) isPassPolicy() {}
func (AccuracyThreshold) isPassPolicy()  {}

// Stage is one opponent in the arena, static catalog data.
type Stage struct {
	ID          int
	Name        string
	Description string
	Difficulty  string
	NotebookURL string
	Policy      PassPolicy
}

type stageJSON struct {
	ID          int      `json:"id"`
	Name        string   `json:"nome"`
	Description string   `json:"descricao"`
	Difficulty  string   `json:"dificuldade"`
	NotebookURL string   `json:"link_tec,omitempty"`
	MaxDuration *int     `json:"max_tempo,omitempty"`
	MaxErrors   *int     `json:"max_erros,omitempty"`
	MinPercent  *float64 `json:"min_aproveitamento,omitempty"`
}

// MarshalJSON flattens the pass policy into the catalog's field layout.
func (s Stage) MarshalJSON() ([]byte, error) {
	out := stageJSON{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Difficulty:  s.Difficulty,
		NotebookURL: s.NotebookURL,
	}
	switch p := s.Policy.(type) {
	case TimeAndErrorBudget:
		out.MaxDuration = &p.MaxDurationMinutes
		out.MaxErrors = &p.MaxErrors
	case AccuracyThreshold:
		out.MinPercent = &p.MinPercent
	}
	return json.Marshal(out)
}

// UnmarshalJSON resolves which pass policy variant the catalog entry uses.
// Budget fields win when both variants are present; an entry with neither is
// rejected so a broken catalog fails loudly at load time.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw stageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID = raw.ID
	s.Name = raw.Name
	s.Description = raw.Description
	s.Difficulty = raw.Difficulty
	s.NotebookURL = raw.NotebookURL
	switch {
	case raw.MaxDuration != nil && raw.MaxErrors != nil:
		s.Policy = TimeAndErrorBudget{MaxDurationMinutes: *raw.MaxDuration, MaxErrors: *raw.MaxErrors}
	case raw.MinPercent != nil:
		s.Policy = AccuracyThreshold{MinPercent: *raw.MinPercent}
	default:
		return fmt.Errorf("stage %d: no pass policy fields", raw.ID)
	}
	return nil
}

// Attempt is a self-reported battle result.
type Attempt struct {
	Total           int
	Correct         int
	DurationMinutes int
}

// Errors derives the error count, floored at zero.
func (a Attempt) Errors() int {
	if a.Correct > a.Total {
		return 0
	}
	return a.Total - a.Correct
}

// AttemptOutcome is the verdict for one battle attempt. Reasons lists each
// violated bound when the attempt lost.
type AttemptOutcome struct {
	Won     bool     `json:"venceu"`
	Reasons []string `json:"motivos,omitempty"`
}

// Answer is a flashcard verdict, matching the catalog's gabarito values.
type Answer string

const (
	AnswerRight Answer = "Certo"
	AnswerWrong Answer = "Errado"
)

// QuestionItem is one true/false drill question.
type QuestionItem struct {
	ID          string `json:"id"`
	Prompt      string `json:"texto"`
	Answer      Answer `json:"gabarito"`
	Explanation string `json:"explicacao"`
	SourceTag   string `json:"fonte,omitempty"`
}

// Mentor groups drill questions by subject and then topic.
type Mentor struct {
	Name        string                               `json:"nome"`
	Description string                               `json:"descricao"`
	Subjects    map[string]map[string][]QuestionItem `json:"materias"`
}

// QuestionBank maps mentor keys to their question trees.
type QuestionBank map[string]Mentor

// SessionMode distinguishes a fresh drill pass from a retry over the
// previously missed questions.
type SessionMode string

const (
	ModeNormal SessionMode = "normal"
	ModeRetry  SessionMode = "retry"
)

// SessionScore summarizes a finished drill pass.
type SessionScore struct {
	Total   int `json:"total"`
	Correct int `json:"acertos"`
	Missed  int `json:"erros"`
}

// ActivityKind tags a history entry. The values are the display strings the
// stored documents use.
type ActivityKind string

const (
	KindBattle ActivityKind = "Batalha"
	KindQuiz   ActivityKind = "Doctore"
)

// AnswerCounts is the structured counterpart of an activity record's
// human-readable summary, so daily totals never depend on string parsing.
type AnswerCounts struct {
	Correct int `json:"acertos"`
	Total   int `json:"total"`
}

// ActivityTimeLayout is the timestamp format used inside stored documents.
const ActivityTimeLayout = "02/01/2006 15:04"

// ActivityRecord is one completed action in the user's history. Summary is
// display-only ("Vitória (7/10)"); Counts carries the same numbers
// structurally and is absent on records written before it existed.
type ActivityRecord struct {
	When     time.Time
	Kind     ActivityKind
	Label    string
	Summary  string
	Duration string
	Counts   *AnswerCounts
}

type activityRecordJSON struct {
	Date     string        `json:"data"`
	Kind     ActivityKind  `json:"tipo"`
	Label    string        `json:"detalhe"`
	Summary  string        `json:"resultado"`
	Duration string        `json:"tempo"`
	Counts   *AnswerCounts `json:"contagem,omitempty"`
}

func (r ActivityRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(activityRecordJSON{
		Date:     r.When.Format(ActivityTimeLayout),
		Kind:     r.Kind,
		Label:    r.Label,
		Summary:  r.Summary,
		Duration: r.Duration,
		Counts:   r.Counts,
	})
}

// UnmarshalJSON tolerates records whose date does not parse; they keep a
// zero time and simply never match a daily filter.
func (r *ActivityRecord) UnmarshalJSON(data []byte) error {
	var raw activityRecordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	when, err := time.ParseInLocation(ActivityTimeLayout, raw.Date, time.Local)
	if err != nil {
		when = time.Time{}
	}
	r.When = when
	r.Kind = raw.Kind
	r.Label = raw.Label
	r.Summary = raw.Summary
	r.Duration = raw.Duration
	r.Counts = raw.Counts
	return nil
}

// SameDay reports whether the record was written on the given calendar day.
func (r ActivityRecord) SameDay(day time.Time) bool {
	y1, m1, d1 := r.When.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// DailyStats is the day-scoped aggregation derived from the activity log.
type DailyStats struct {
	Total     int     `json:"total"`
	Correct   int     `json:"acertos"`
	Incorrect int     `json:"erros"`
	Percent   float64 `json:"aproveitamento"`
}

// UserProgress is the durable root object for one user, serialized as the
// arena segment of the user's row document.
type UserProgress struct {
	Stats    Stats            `json:"stats"`
	Stage    StageProgress    `json:"progresso_arena"`
	Activity []ActivityRecord `json:"historico_atividades"`
}

// NewUserProgress returns the all-zero defaults for a user never seen before.
func NewUserProgress() *UserProgress {
	return &UserProgress{
		Stage:    StageProgress{HighestUnlocked: 1, Cleared: []int{}},
		Activity: []ActivityRecord{},
	}
}

// EnsureDefaults patches pieces a partially written document may lack. Each
// sub-object is repaired independently so one corrupt piece never resets the
// others.
func (p *UserProgress) EnsureDefaults() {
	if p.Stage.HighestUnlocked < 1 {
		p.Stage.HighestUnlocked = 1
	}
	if p.Stage.Cleared == nil {
		p.Stage.Cleared = []int{}
	}
	if p.Activity == nil {
		p.Activity = []ActivityRecord{}
	}
}

// RowHandle identifies one user's row in the backing store.
type RowHandle struct {
	UserKey string
}

// SyncState tells the UI whether remote persistence is working.
type SyncState string

const (
	SyncOnline    SyncState = "online"
	SyncOnlineNew SyncState = "online_new"
	SyncOffline   SyncState = "offline"
)

// SyncStatus is surfaced passively; persistence failures never block play.
type SyncStatus struct {
	State  SyncState `json:"state"`
	Reason string    `json:"reason,omitempty"`
}

// Identity is the authenticated principal returned by the user directory.
type Identity struct {
	UserKey     string `json:"userKey"`
	DisplayName string `json:"displayName"`
}
