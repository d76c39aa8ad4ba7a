package models

import (
	"math"
	"time"
)

// CurrentRecordVersion is the schema version written by this program.
// Version 1 is the layout of the original vocab.json (translation stored under
// "word", no category or favorite flag, fractional lastPracticed).
const CurrentRecordVersion = 2

// WordRecord holds the mastery state for a single vocabulary entry.
// Records are keyed by the source-language term in the vocabulary store.
type WordRecord struct {
	Translation   string
	Score         int       // raw mastery score, never negative
	Streak        int       // consecutive correct answers
	LastPracticed time.Time // set on every answer and at creation
	Category      string    // optional grouping used for decoy selection
	IsFavorite    bool      // display only
	Version       int
}

// RawRecord is the persisted shape of a WordRecord in the vocabulary file.
type RawRecord struct {
	Translation   string  `json:"translation,omitempty"`
	LegacyWord    string  `json:"word,omitempty"`
	Score         int     `json:"score"`
	Streak        int     `json:"streak"`
	LastPracticed float64 `json:"lastPracticed"`
	Category      string  `json:"category,omitempty"`
	IsFavorite    bool    `json:"isFavorite,omitempty"`
	Version       int     `json:"version,omitempty"`
}

// MigrateRecord converts a persisted record of any known version into the
// current in-memory representation.
func MigrateRecord(raw RawRecord) WordRecord {
	rec := WordRecord{
		Translation: raw.Translation,
		Score:       raw.Score,
		Streak:      raw.Streak,
		Category:    raw.Category,
		IsFavorite:  raw.IsFavorite,
		Version:     CurrentRecordVersion,
	}

	if raw.Version < 2 && rec.Translation == "" {
		rec.Translation = raw.LegacyWord
	}

	// Legacy files were written with time.time() and carry fractions of a second.
	rec.LastPracticed = time.Unix(int64(math.Floor(raw.LastPracticed)), 0)

	if rec.Score < 0 {
		rec.Score = 0
	}
	if rec.Streak < 0 {
		rec.Streak = 0
	}
	return rec
}

// ToRaw converts a record into its current persisted shape.
func (r WordRecord) ToRaw() RawRecord {
	var last float64
	if !r.LastPracticed.IsZero() {
		last = float64(r.LastPracticed.Unix())
	}
	return RawRecord{
		Translation:   r.Translation,
		Score:         r.Score,
		Streak:        r.Streak,
		LastPracticed: last,
		Category:      r.Category,
		IsFavorite:    r.IsFavorite,
		Version:       CurrentRecordVersion,
	}
}
