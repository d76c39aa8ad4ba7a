package spaced_repetition

import (
	"math/rand"
	"time"

	"github.com/example/vocabdrill/pkg/models"
)

const (
	// DecayInterval is the time it takes an unpracticed word with a zero
	// streak to lose one point of effective score.
	DecayInterval = 2 * time.Hour
	// DefaultCooldown keeps a word out of the next batch right after it was answered.
	DefaultCooldown = 5 * time.Minute

	DefaultMaxScore  = 30
	DefaultMaxStreak = 10

	// A wrong answer keeps 7/10 of the raw score.
	wrongPenaltyNum   = 7
	wrongPenaltyDenom = 10
)

// Rand is the random source used for shuffling. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Model implements the streak-modulated score decay and the practice word selection
type Model struct {
	// Words at or above this effective score are considered mastered
	MaxScore int
	// Streak at which decay stops entirely
	MaxStreak int
	// Minimum time since the last answer before a word is picked again
	Cooldown time.Duration
	// Source for shuffling selected batches
	Rand Rand
}

// NewModel creates a Model with default settings
func NewModel() *Model {
	return &Model{
		MaxScore:  DefaultMaxScore,
		MaxStreak: DefaultMaxStreak,
		Cooldown:  DefaultCooldown,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// decayFraction returns the share of full decay applied for the given streak
// as numerator and denominator: all of it with no streak, none at MaxStreak.
func (m *Model) decayFraction(streak int) (num, denom int64) {
	switch {
	case streak <= 0:
		return 1, 1
	case streak >= m.MaxStreak:
		return 0, 1
	default:
		return int64(m.MaxStreak - streak), int64(m.MaxStreak)
	}
}

// EffectiveScore returns the record's score after time decay:
//
//	score - floor(elapsedHours/2 * rate), never below zero.
//
// Elapsed time is counted in whole seconds, the precision records are stored
// with, and the decay is computed in integers so equal inputs always agree.
func (m *Model) EffectiveScore(rec models.WordRecord, now time.Time) int {
	elapsed := int64(now.Sub(rec.LastPracticed) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	interval := int64(DecayInterval / time.Second)

	num, denom := m.decayFraction(rec.Streak)
	decay := elapsed * num / (interval * denom)

	score := int64(rec.Score) - decay
	if score < 0 {
		return 0
	}
	return int(score)
}

// ApplyOutcome returns the record updated for a correct or wrong answer given at now.
// A wrong answer resets the streak and keeps 70% of the raw score.
func (m *Model) ApplyOutcome(rec models.WordRecord, correct bool, now time.Time) models.WordRecord {
	if correct {
		rec.Streak++
		rec.Score++
	} else {
		rec.Streak = 0
		rec.Score = rec.Score * wrongPenaltyNum / wrongPenaltyDenom
	}
	if rec.Score < 0 {
		rec.Score = 0
	}
	rec.LastPracticed = now
	return rec
}

// IsMastered reports whether the word's effective score has reached MaxScore.
func (m *Model) IsMastered(rec models.WordRecord, now time.Time) bool {
	return m.EffectiveScore(rec, now) >= m.MaxScore
}
