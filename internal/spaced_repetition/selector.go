package spaced_repetition

import (
	"errors"
	"sort"
	"time"

	"github.com/example/vocabdrill/internal/vocab"
	"github.com/example/vocabdrill/pkg/models"
)

var ErrInvalidCount = errors.New("practice word count must be positive")

// RankedWord is a word together with its effective score at ranking time
type RankedWord struct {
	Word      string
	Effective int
	Record    *models.WordRecord
}

// Rank orders every word by effective score, weakest first.
// Ties go to the word practiced longest ago, then to lexical order.
func (m *Model) Rank(store *vocab.Store, now time.Time) []RankedWord {
	ranked := make([]RankedWord, 0, store.Len())
	for _, word := range store.Keys() {
		rec, _ := store.Get(word)
		ranked = append(ranked, RankedWord{
			Word:      word,
			Effective: m.EffectiveScore(*rec, now),
			Record:    rec,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Effective != ranked[j].Effective {
			return ranked[i].Effective < ranked[j].Effective
		}
		li, lj := ranked[i].Record.LastPracticed, ranked[j].Record.LastPracticed
		if !li.Equal(lj) {
			return li.Before(lj)
		}
		return ranked[i].Word < ranked[j].Word
	})

	return ranked
}

// IsDue reports whether a word is below mastery and out of its cooldown.
func (m *Model) IsDue(rec models.WordRecord, now time.Time) bool {
	if m.IsMastered(rec, now) {
		return false
	}
	return now.Sub(rec.LastPracticed) >= m.Cooldown
}

// DueWords returns the words that would be picked first for practice, weakest first.
func (m *Model) DueWords(store *vocab.Store, now time.Time) []string {
	var due []string
	for _, r := range m.Rank(store, now) {
		if m.IsDue(*r.Record, now) {
			due = append(due, r.Word)
		}
	}
	return due
}

// SelectPracticeWords picks up to count words for a session.
//
// Words below MaxScore whose cooldown has passed are taken weakest first. If
// that leaves the batch short, the lowest ranked remaining words fill it up,
// so a non-empty vocabulary never yields an empty session. The result is
// shuffled and never longer than the vocabulary.
func (m *Model) SelectPracticeWords(store *vocab.Store, now time.Time, count int) ([]string, error) {
	if store.Len() == 0 {
		return nil, vocab.ErrEmptyVocabulary
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	if count > store.Len() {
		count = store.Len()
	}

	ranked := m.Rank(store, now)
	selected := make([]string, 0, count)
	taken := make(map[string]bool, count)

	for _, r := range ranked {
		if len(selected) == count {
			break
		}
		if m.IsDue(*r.Record, now) {
			selected = append(selected, r.Word)
			taken[r.Word] = true
		}
	}

	for _, r := range ranked {
		if len(selected) == count {
			break
		}
		if !taken[r.Word] {
			selected = append(selected, r.Word)
			taken[r.Word] = true
		}
	}

	m.shuffle(selected)
	return selected, nil
}

// SelectAllWords returns every word in the vocabulary in random order.
func (m *Model) SelectAllWords(store *vocab.Store) ([]string, error) {
	if store.Len() == 0 {
		return nil, vocab.ErrEmptyVocabulary
	}
	words := store.Keys()
	m.shuffle(words)
	return words, nil
}

func (m *Model) shuffle(words []string) {
	if m.Rand == nil {
		return
	}
	m.Rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})
}
