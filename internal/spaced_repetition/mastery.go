package spaced_repetition

import (
	"sort"
	"time"

	"github.com/example/vocabdrill/internal/vocab"
)

// Band is a coarse mastery level used when listing words.
type Band string

const (
	BandWeak     Band = "weak"
	BandLearning Band = "learning"
	BandGood     Band = "good"
	BandStrong   Band = "strong"
	BandMastered Band = "mastered"
)

// MasteryBand maps an effective score to its display band.
func MasteryBand(effective int) Band {
	switch {
	case effective < 5:
		return BandWeak
	case effective < 10:
		return BandLearning
	case effective < 20:
		return BandGood
	case effective < 30:
		return BandStrong
	default:
		return BandMastered
	}
}

// WordStatus is one line of the word list.
type WordStatus struct {
	RankedWord
	Band Band
	Due  bool
}

// Overview lists every word for display: favorites first, then weakest first.
// Words at MaxScore are always reported as mastered.
func (m *Model) Overview(store *vocab.Store, now time.Time) []WordStatus {
	ranked := m.Rank(store, now)
	out := make([]WordStatus, 0, len(ranked))
	for _, r := range ranked {
		band := MasteryBand(r.Effective)
		if m.IsMastered(*r.Record, now) {
			band = BandMastered
		}
		out = append(out, WordStatus{
			RankedWord: r,
			Band:       band,
			Due:        m.IsDue(*r.Record, now),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.IsFavorite && !out[j].Record.IsFavorite
	})
	return out
}
