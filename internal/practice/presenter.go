package practice

import "context"

// PromptKind tells the presenter what kind of input is expected.
type PromptKind string

const (
	PromptRecall         PromptKind = "recall"
	PromptMultipleChoice PromptKind = "multiple_choice"
	PromptTrueFalse      PromptKind = "true_false"
)

// Prompt is a request for learner input.
type Prompt struct {
	Kind           PromptKind
	Word           string
	EffectiveScore int
	Options        []string // multiple choice, answered with a 1-based index
	Statement      string   // true/false, the proposed translation
	Position       int      // 1-based position of the word in the batch
	Total          int
}

// EventKind identifies feedback shown to the learner.
type EventKind string

const (
	EventCorrect EventKind = "correct"
	EventWrong   EventKind = "wrong"
	EventSummary EventKind = "summary"
)

// Event is structured feedback. Formatting is left to the presenter.
type Event struct {
	Kind    EventKind
	Word    string
	Answer  string // correct translation, revealed on a wrong answer
	Invalid bool
	Skipped bool
	Score   int
	Streak  int
	Summary Summary
}

// Presenter is the input/output collaborator of a session.
type Presenter interface {
	Ask(ctx context.Context, p Prompt) (string, error)
	Show(ctx context.Context, e Event) error
}

func outcomeEvent(o *Outcome) Event {
	kind := EventWrong
	if o.Correct {
		kind = EventCorrect
	}
	return Event{
		Kind:    kind,
		Word:    o.Word,
		Answer:  o.Answer,
		Invalid: o.Invalid,
		Skipped: o.Skipped,
		Score:   o.Score,
		Streak:  o.Streak,
	}
}
