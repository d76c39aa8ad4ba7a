package spaced_repetition

import (
	"errors"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/example/vocabdrill/internal/vocab"
)

// keepOrder is a Rand that leaves slices untouched.
type keepOrder struct{}

func (keepOrder) Intn(n int) int { return 0 }
func (keepOrder) Shuffle(n int, swap func(i, j int)) {}

func newStore(t *testing.T, words map[string]int, practicedAt time.Time) *vocab.Store {
	t.Helper()
	s := vocab.NewStore()
	for w, score := range words {
		rec, err := s.Add(w, w+"-t", "", practicedAt)
		if err != nil {
			t.Fatalf("add %s: %v", w, err)
		}
		rec.Score = score
	}
	return s
}

func TestSelectPracticeWords_EmptyVocabulary(t *testing.T) {
	m := testModel()
	if _, err := m.SelectPracticeWords(vocab.NewStore(), base, 5); !errors.Is(err, vocab.ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary, got %v", err)
	}
	if _, err := m.SelectAllWords(vocab.NewStore()); !errors.Is(err, vocab.ErrEmptyVocabulary) {
		t.Errorf("expected ErrEmptyVocabulary, got %v", err)
	}
}

func TestSelectPracticeWords_InvalidCount(t *testing.T) {
	m := testModel()
	s := newStore(t, map[string]int{"a": 1}, base.Add(-time.Hour))
	if _, err := m.SelectPracticeWords(s, base, 0); !errors.Is(err, ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
}

func TestSelectPracticeWords_CapsAtVocabularySize(t *testing.T) {
	m := testModel()
	m.Rand = rand.New(rand.NewSource(1))
	s := newStore(t, map[string]int{"a": 1, "b": 2, "c": 3}, base.Add(-time.Hour))

	words, err := m.SelectPracticeWords(s, base, 8)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 words, got %d", len(words))
	}
	assertUnique(t, words)
}

func TestSelectPracticeWords_WeakestFirst(t *testing.T) {
	m := testModel()
	m.Rand = keepOrder{}
	s := newStore(t, map[string]int{"strong": 20, "weak": 1, "mid": 8, "weakest": 0}, base.Add(-10*time.Minute))

	words, err := m.SelectPracticeWords(s, base, 2)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	sort.Strings(words)
	if words[0] != "weak" || words[1] != "weakest" {
		t.Errorf("expected the two weakest words, got %v", words)
	}
}

func TestSelectPracticeWords_CooldownAndMasteryFilter(t *testing.T) {
	m := testModel()
	m.Rand = keepOrder{}
	s := newStore(t, map[string]int{"fresh": 0, "old": 5, "mastered": 40}, base.Add(-time.Hour))
	fresh, _ := s.Get("fresh")
	fresh.LastPracticed = base.Add(-time.Minute)
	mastered, _ := s.Get("mastered")
	mastered.Streak = m.MaxStreak

	words, err := m.SelectPracticeWords(s, base, 1)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(words) != 1 || words[0] != "old" {
		t.Errorf("expected [old] since fresh is cooling down and mastered is done, got %v", words)
	}
}

func TestSelectPracticeWords_PadsWithLowestRemaining(t *testing.T) {
	m := testModel()
	m.Rand = keepOrder{}
	// Everything was just answered, so nothing passes the cooldown filter.
	s := newStore(t, map[string]int{"a": 4, "b": 1, "c": 9, "d": 2}, base.Add(-time.Minute))

	words, err := m.SelectPracticeWords(s, base, 3)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 padded words, got %v", words)
	}
	want := []string{"b", "d", "a"}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, words)
		}
	}
}

func TestSelectPracticeWords_NeverEmptyForNonEmptyVocabulary(t *testing.T) {
	m := testModel()
	m.Rand = rand.New(rand.NewSource(7))
	s := newStore(t, map[string]int{"only": 50}, base)
	rec, _ := s.Get("only")
	rec.Streak = 20

	words, err := m.SelectPracticeWords(s, base, 15)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(words) != 1 {
		t.Errorf("expected 1 word, got %v", words)
	}
}

func TestSelectPracticeWords_DeterministicWithSeed(t *testing.T) {
	s := newStore(t, map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}, base.Add(-time.Hour))

	m1 := testModel()
	m1.Rand = rand.New(rand.NewSource(42))
	m2 := testModel()
	m2.Rand = rand.New(rand.NewSource(42))

	w1, _ := m1.SelectPracticeWords(s, base, 4)
	w2, _ := m2.SelectPracticeWords(s, base, 4)
	for i := range w1 {
		if w1[i] != w2[i] {
			t.Fatalf("expected identical selections, got %v and %v", w1, w2)
		}
	}
}

func TestSelectAllWords(t *testing.T) {
	m := testModel()
	m.Rand = rand.New(rand.NewSource(3))
	s := newStore(t, map[string]int{"a": 1, "b": 50, "c": 3}, base)

	words, err := m.SelectAllWords(s)
	if err != nil {
		t.Fatalf("select all: %v", err)
	}
	if len(words) != 3 {
		t.Errorf("expected all 3 words, got %v", words)
	}
	assertUnique(t, words)
}

func TestRankAndDueWords(t *testing.T) {
	m := testModel()
	s := newStore(t, map[string]int{"x": 3, "y": 3, "z": 1}, base.Add(-time.Hour))
	y, _ := s.Get("y")
	y.LastPracticed = base.Add(-2 * time.Hour)

	ranked := m.Rank(s, base)
	got := []string{ranked[0].Word, ranked[1].Word, ranked[2].Word}
	want := []string{"z", "y", "x"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected rank %v, got %v", want, got)
		}
	}

	x, _ := s.Get("x")
	x.LastPracticed = base
	due := m.DueWords(s, base)
	if len(due) != 2 || due[0] != "z" || due[1] != "y" {
		t.Errorf("expected due [z y], got %v", due)
	}
}

func assertUnique(t *testing.T, words []string) {
	t.Helper()
	seen := map[string]bool{}
	for _, w := range words {
		if seen[w] {
			t.Fatalf("duplicate word %q in %v", w, words)
		}
		seen[w] = true
	}
}
