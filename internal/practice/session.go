package practice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/vocabdrill/internal/logger"
	"github.com/example/vocabdrill/internal/quiz"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/internal/vocab"
	"github.com/example/vocabdrill/pkg/models"
	"github.com/google/uuid"
)

// State is a step of the practice state machine.
type State int

const (
	AwaitingBatch State = iota
	PresentingWord
	AwaitingRecall
	PresentingChoices
	AwaitingAnswer
	Scoring
	SessionComplete
	Aborted
)

var stateNames = map[State]string{
	AwaitingBatch:     "awaiting_batch",
	PresentingWord:    "presenting_word",
	AwaitingRecall:    "awaiting_recall",
	PresentingChoices: "presenting_choices",
	AwaitingAnswer:    "awaiting_answer",
	Scoring:           "scoring",
	SessionComplete:   "session_complete",
	Aborted:           "aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == SessionComplete || s == Aborted
}

var ErrWrongState = errors.New("operation not allowed in current session state")

// SessionConfig holds the per-session practice parameters.
type SessionConfig struct {
	NumWords int       // batch size requested from the selector
	AllWords bool      // practice every word instead of a selected batch
	Mode     quiz.Mode // question type policy
}

// ResultRecorder stores the summary of a finished session.
type ResultRecorder interface {
	Create(ctx context.Context, result *models.PracticeResult) error
}

// Outcome describes a scored answer.
type Outcome struct {
	Word    string
	Answer  string // correct translation
	Correct bool
	Invalid bool // input could not be read as an answer
	Skipped bool // learner said they did not remember
	Score   int  // raw score after the update
	Streak  int
}

// Summary aggregates the answers of a session.
type Summary struct {
	Correct int
	Wrong   int
	Total   int // words in the batch
	Aborted bool
}

// Answered returns the number of scored words.
func (s Summary) Answered() int {
	return s.Correct + s.Wrong
}

// Accuracy returns the share of correct answers in [0, 1].
func (s Summary) Accuracy() float64 {
	if s.Answered() == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Answered())
}

// Session drives a single practice run over a batch of words.
type Session struct {
	ID string

	store    *vocab.Store
	model    *spaced_repetition.Model
	builder  *quiz.Builder
	cfg      SessionConfig
	storage  vocab.Storage
	recorder ResultRecorder
	log      *logger.Logger
	now      func() time.Time

	state     State
	words     []string
	idx       int
	question  *quiz.Question
	summary   Summary
	startedAt time.Time
}

// Option customizes a Session.
type Option func(*Session)

// WithStorage saves the store after every scored answer.
func WithStorage(storage vocab.Storage) Option {
	return func(s *Session) { s.storage = storage }
}

// WithRecorder stores the session summary when the session ends.
func WithRecorder(r ResultRecorder) Option {
	return func(s *Session) { s.recorder = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Session) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithRand sets the random source used to build questions.
func WithRand(rnd quiz.Rand) Option {
	return func(s *Session) { s.builder = quiz.NewBuilder(s.store, s.cfg.Mode, rnd) }
}

// New creates a session in the AwaitingBatch state.
func New(store *vocab.Store, model *spaced_repetition.Model, cfg SessionConfig, opts ...Option) *Session {
	s := &Session{
		ID:    uuid.NewString(),
		store: store,
		model: model,
		cfg:   cfg,
		log:   logger.NewNop(),
		now:   time.Now,
		state: AwaitingBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.builder == nil {
		s.builder = quiz.NewBuilder(store, cfg.Mode, nil)
	}
	s.log = s.log.With("session_id", s.ID)
	return s
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Summary() Summary {
	return s.summary
}

// Words returns the selected batch.
func (s *Session) Words() []string {
	return append([]string(nil), s.words...)
}

// Start selects the batch. An empty vocabulary aborts the session and returns
// vocab.ErrEmptyVocabulary.
func (s *Session) Start(ctx context.Context) error {
	if s.state != AwaitingBatch {
		return fmt.Errorf("start: %w (state %s)", ErrWrongState, s.state)
	}
	s.startedAt = s.now()

	var words []string
	var err error
	if s.cfg.AllWords {
		words, err = s.model.SelectAllWords(s.store)
	} else {
		words, err = s.model.SelectPracticeWords(s.store, s.startedAt, s.cfg.NumWords)
	}
	if err != nil {
		s.state = Aborted
		s.summary.Aborted = true
		s.log.Warn("practice session could not start", "error", err)
		return fmt.Errorf("select practice words: %w", err)
	}

	s.words = words
	s.summary.Total = len(words)
	s.state = PresentingWord
	s.log.Info("practice session started", "words", len(words), "mode", s.cfg.Mode)
	return nil
}

// PresentWord returns the recall prompt for the current word.
func (s *Session) PresentWord() (Prompt, error) {
	if s.state != PresentingWord {
		return Prompt{}, fmt.Errorf("present word: %w (state %s)", ErrWrongState, s.state)
	}
	word := s.words[s.idx]
	p := Prompt{
		Kind:     PromptRecall,
		Word:     word,
		Position: s.idx + 1,
		Total:    len(s.words),
	}
	if rec, ok := s.store.Get(word); ok {
		p.EffectiveScore = s.model.EffectiveScore(*rec, s.now())
	}

	s.state = AwaitingRecall
	return p, nil
}

// Recall handles the learner's answer to the recall gate. Saying "no" scores the
// word as wrong and returns its outcome; anything else moves on to the question.
func (s *Session) Recall(ctx context.Context, input string) (*Outcome, error) {
	if s.state != AwaitingRecall {
		return nil, fmt.Errorf("recall: %w (state %s)", ErrWrongState, s.state)
	}
	if IsExit(input) {
		s.Exit()
		return nil, nil
	}

	word := s.words[s.idx]
	if isNotRemembered(input) {
		s.state = Scoring
		outcome, err := s.score(ctx, word, false)
		outcome.Skipped = true
		return outcome, err
	}

	q, err := s.builder.Build(word)
	if err != nil {
		// The word vanished from the store; skip it rather than stall.
		s.log.Error("build question", "word", word, "error", err)
		s.advance()
		return nil, nil
	}
	s.question = &q
	s.state = PresentingChoices
	return nil, nil
}

// PresentChoices returns the question prompt for the current word.
func (s *Session) PresentChoices() (Prompt, error) {
	if s.state != PresentingChoices || s.question == nil {
		return Prompt{}, fmt.Errorf("present choices: %w (state %s)", ErrWrongState, s.state)
	}
	rec, _ := s.store.Get(s.question.Word)

	p := Prompt{
		Word:     s.question.Word,
		Position: s.idx + 1,
		Total:    len(s.words),
	}
	if rec != nil {
		p.EffectiveScore = s.model.EffectiveScore(*rec, s.now())
	}
	switch s.question.Type {
	case quiz.MultipleChoice:
		p.Kind = PromptMultipleChoice
		p.Options = append([]string(nil), s.question.Options...)
	case quiz.TrueFalse:
		p.Kind = PromptTrueFalse
		p.Statement = s.question.Statement
	}

	s.state = AwaitingAnswer
	return p, nil
}

// Answer scores the learner's input for the current question. Malformed input
// counts as a wrong answer. A storage failure is returned wrapped in
// vocab.ErrPersistence after the outcome has been applied and the session
// has advanced.
func (s *Session) Answer(ctx context.Context, input string) (*Outcome, error) {
	if s.state != AwaitingAnswer || s.question == nil {
		return nil, fmt.Errorf("answer: %w (state %s)", ErrWrongState, s.state)
	}
	if IsExit(input) {
		s.Exit()
		return nil, nil
	}

	s.state = Scoring
	correct, checkErr := s.question.Check(input)
	outcome, err := s.score(ctx, s.question.Word, correct)
	if checkErr != nil {
		outcome.Invalid = true
		s.log.Debug("invalid answer treated as wrong", "word", outcome.Word, "error", checkErr)
	}
	return outcome, err
}

// Exit aborts the session. Answers already scored are kept.
func (s *Session) Exit() {
	if s.state.Terminal() {
		return
	}
	s.state = Aborted
	s.summary.Aborted = true
	s.log.Info("practice session aborted", "answered", s.summary.Answered())
}

// score applies the outcome to the live record and persists the store.
func (s *Session) score(ctx context.Context, word string, correct bool) (*Outcome, error) {
	rec, ok := s.store.Get(word)
	if !ok {
		s.advance()
		return &Outcome{Word: word}, fmt.Errorf("score %q: %w", word, vocab.ErrWordNotFound)
	}

	*rec = s.model.ApplyOutcome(*rec, correct, s.now())
	if correct {
		s.summary.Correct++
	} else {
		s.summary.Wrong++
	}

	outcome := &Outcome{
		Word:    word,
		Answer:  rec.Translation,
		Correct: correct,
		Score:   rec.Score,
		Streak:  rec.Streak,
	}
	s.advance()

	if s.storage != nil {
		if err := s.store.SaveTo(ctx, s.storage); err != nil {
			s.log.Error("save after answer failed", "word", word, "error", err)
			return outcome, err
		}
	}
	return outcome, nil
}

func (s *Session) advance() {
	s.question = nil
	s.idx++
	if s.idx >= len(s.words) {
		s.state = SessionComplete
		s.log.Info("practice session complete",
			"correct", s.summary.Correct,
			"wrong", s.summary.Wrong,
			"accuracy", s.summary.Accuracy(),
		)
		return
	}
	s.state = PresentingWord
}

// Run drives the session to a terminal state through the presenter and returns
// the summary. The context is checked before every prompt; a presenter
// returning io.EOF is treated as the exit signal.
func (s *Session) Run(ctx context.Context, p Presenter) (Summary, error) {
	if s.state == AwaitingBatch {
		if err := s.Start(ctx); err != nil {
			return s.summary, err
		}
	}

	for !s.state.Terminal() {
		if err := ctx.Err(); err != nil {
			s.Exit()
			break
		}

		var prompt Prompt
		var err error
		switch s.state {
		case PresentingWord:
			prompt, err = s.PresentWord()
		case PresentingChoices:
			prompt, err = s.PresentChoices()
		default:
			return s.summary, fmt.Errorf("run: %w (state %s)", ErrWrongState, s.state)
		}
		if err != nil {
			return s.summary, err
		}

		input, err := p.Ask(ctx, prompt)
		if err != nil {
			s.Exit()
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				break
			}
			return s.summary, fmt.Errorf("ask: %w", err)
		}

		var outcome *Outcome
		if prompt.Kind == PromptRecall {
			outcome, err = s.Recall(ctx, input)
		} else {
			outcome, err = s.Answer(ctx, input)
		}
		if outcome != nil {
			if showErr := p.Show(ctx, outcomeEvent(outcome)); showErr != nil {
				s.log.Warn("show outcome", "error", showErr)
			}
		}
		if err != nil {
			return s.summary, err
		}
	}

	if err := p.Show(ctx, Event{Kind: EventSummary, Summary: s.summary}); err != nil {
		s.log.Warn("show summary", "error", err)
	}
	// The result is stored even when ctx was canceled to stop the session.
	s.recordResult(context.WithoutCancel(ctx))
	return s.summary, nil
}

func (s *Session) recordResult(ctx context.Context) {
	if s.recorder == nil || s.summary.Answered() == 0 {
		return
	}
	mode := s.cfg.Mode
	if mode == "" {
		mode = quiz.ModeRandom
	}
	result := &models.PracticeResult{
		SessionID:    s.ID,
		Mode:         string(mode),
		TotalWords:   s.summary.Total,
		CorrectWords: s.summary.Correct,
		WrongWords:   s.summary.Wrong,
		Aborted:      s.summary.Aborted,
		StartedAt:    s.startedAt,
		FinishedAt:   s.now(),
	}
	if err := s.recorder.Create(ctx, result); err != nil {
		s.log.Error("record practice result", "error", err)
	}
}

// IsExit reports whether the input is the exit signal.
func IsExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "0", "q", "quit", "exit", "/exit":
		return true
	}
	return false
}

func isNotRemembered(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "n", "no", "dont", "don't", "/no":
		return true
	}
	return false
}
