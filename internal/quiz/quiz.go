package quiz

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/example/vocabdrill/internal/vocab"
)

// QuestionType represents the kind of question shown for a word
type QuestionType string

const (
	// MultipleChoice asks the learner to pick the translation by index
	MultipleChoice QuestionType = "multiple_choice"
	// TrueFalse shows one candidate translation and asks whether it is right
	TrueFalse QuestionType = "true_false"
)

// Mode selects which question types a session uses
type Mode string

const (
	ModeRandom         Mode = "random"
	ModeMultipleChoice Mode = "multipleChoice"
	ModeTrueFalse      Mode = "trueFalse"
)

// DefaultOptionCount is the number of answers offered in a multiple-choice question
const DefaultOptionCount = 4

var (
	ErrUnknownMode = errors.New("unknown practice mode")
	// ErrInsufficientDecoys is reported by Decoys when the vocabulary holds fewer
	// distinct translations than requested. Builders recover from it by offering
	// fewer options.
	ErrInsufficientDecoys = errors.New("not enough distinct words for decoys")
	// ErrInvalidAnswer marks input that cannot be read as an answer. It is scored
	// as a wrong answer.
	ErrInvalidAnswer = errors.New("invalid answer input")
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "random":
		return ModeRandom, nil
	case "multiplechoice", "multiple_choice", "mc":
		return ModeMultipleChoice, nil
	case "truefalse", "true_false", "tf":
		return ModeTrueFalse, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Rand is the random source used to pick decoys and question types.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Question is a single quiz question about one word
type Question struct {
	Word         string
	Answer       string       // the correct translation
	Type         QuestionType // type of question
	Options      []string     // possible answers (multiple choice)
	CorrectIndex int          // index of the correct answer in Options
	Statement    string       // translation proposed to the learner (true/false)
	IsTrue       bool         // whether Statement is the correct translation
}

// Builder creates questions from the words of a vocabulary
type Builder struct {
	store       *vocab.Store
	mode        Mode
	optionCount int
	rnd         Rand
}

// NewBuilder creates a question builder. A nil rnd uses a time-seeded source.
func NewBuilder(store *vocab.Store, mode Mode, rnd Rand) *Builder {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if mode == "" {
		mode = ModeRandom
	}
	return &Builder{
		store:       store,
		mode:        mode,
		optionCount: DefaultOptionCount,
		rnd:         rnd,
	}
}

// Build generates a question for the given word according to the builder's mode.
func (b *Builder) Build(word string) (Question, error) {
	rec, ok := b.store.Get(word)
	if !ok {
		return Question{}, fmt.Errorf("build question for %q: %w", word, vocab.ErrWordNotFound)
	}

	question := Question{
		Word:   word,
		Answer: rec.Translation,
		Type:   b.questionType(),
	}

	switch question.Type {
	case MultipleChoice:
		// Too few words just means fewer options.
		decoys, _ := b.Decoys(word, b.optionCount-1)

		options := append(decoys, rec.Translation)
		correctIndex := len(options) - 1

		b.rnd.Shuffle(len(options), func(i, j int) {
			if i == correctIndex {
				correctIndex = j
			} else if j == correctIndex {
				correctIndex = i
			}
			options[i], options[j] = options[j], options[i]
		})

		question.Options = options
		question.CorrectIndex = correctIndex

	case TrueFalse:
		question.Statement = rec.Translation
		question.IsTrue = true
		if b.rnd.Intn(2) == 0 {
			if decoys, _ := b.Decoys(word, 1); len(decoys) > 0 {
				question.Statement = decoys[0]
				question.IsTrue = false
			}
		}
	}

	return question, nil
}

func (b *Builder) questionType() QuestionType {
	switch b.mode {
	case ModeMultipleChoice:
		return MultipleChoice
	case ModeTrueFalse:
		return TrueFalse
	default:
		if b.rnd.Intn(2) == 0 {
			return MultipleChoice
		}
		return TrueFalse
	}
}

// Decoys returns up to count wrong translations for word. Translations from the
// word's own category come first, then any other word fills the rest.
// ErrInsufficientDecoys is returned along with the partial list when the
// vocabulary cannot supply count distinct decoys.
func (b *Builder) Decoys(word string, count int) ([]string, error) {
	rec, ok := b.store.Get(word)
	if !ok {
		return nil, fmt.Errorf("decoys for %q: %w", word, vocab.ErrWordNotFound)
	}
	if count <= 0 {
		return nil, nil
	}

	var sameCategory, others []string
	for _, other := range b.store.Keys() {
		if other == word {
			continue
		}
		o, _ := b.store.Get(other)
		if rec.Category != "" && o.Category == rec.Category {
			sameCategory = append(sameCategory, o.Translation)
		} else {
			others = append(others, o.Translation)
		}
	}

	b.rnd.Shuffle(len(sameCategory), func(i, j int) {
		sameCategory[i], sameCategory[j] = sameCategory[j], sameCategory[i]
	})
	b.rnd.Shuffle(len(others), func(i, j int) {
		others[i], others[j] = others[j], others[i]
	})

	decoys := make([]string, 0, count)
	used := map[string]bool{normalize(rec.Translation): true}
	for _, pool := range [][]string{sameCategory, others} {
		for _, t := range pool {
			if len(decoys) == count {
				break
			}
			key := normalize(t)
			if used[key] {
				continue
			}
			used[key] = true
			decoys = append(decoys, t)
		}
	}

	if len(decoys) < count {
		return decoys, ErrInsufficientDecoys
	}
	return decoys, nil
}

// Check compares raw learner input against the question. Input that cannot be
// read as an answer returns ErrInvalidAnswer and counts as wrong.
func (q Question) Check(input string) (bool, error) {
	input = strings.TrimSpace(input)

	switch q.Type {
	case MultipleChoice:
		n, err := strconv.Atoi(input)
		if err != nil || n < 1 || n > len(q.Options) {
			return false, fmt.Errorf("%w: %q", ErrInvalidAnswer, input)
		}
		return n-1 == q.CorrectIndex, nil

	case TrueFalse:
		answer, ok := parseBool(input)
		if !ok {
			return false, fmt.Errorf("%w: %q", ErrInvalidAnswer, input)
		}
		return answer == q.IsTrue, nil
	}

	return false, fmt.Errorf("%w: unknown question type %q", ErrInvalidAnswer, q.Type)
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "t", "true", "y", "yes":
		return true, true
	case "2", "f", "false", "n", "no":
		return false, true
	}
	return false, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
