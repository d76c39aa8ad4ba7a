package vocab

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/vocabdrill/pkg/models"
)

var (
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
	ErrWordExists      = errors.New("word already exists")
	ErrWordNotFound    = errors.New("word not found")
	ErrEmptyWord       = errors.New("word and translation must be non-empty")
	// ErrPersistence wraps any failure reported by a Storage implementation.
	// The in-memory store stays authoritative when it is returned.
	ErrPersistence = errors.New("persistence failure")
)

// Storage loads and saves the whole vocabulary.
type Storage interface {
	Load(ctx context.Context) (map[string]models.WordRecord, error)
	Save(ctx context.Context, records map[string]models.WordRecord) error
}

// Store is the in-memory vocabulary. It is not safe for concurrent use.
type Store struct {
	records map[string]*models.WordRecord
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{records: make(map[string]*models.WordRecord)}
}

// FromRecords builds a store from a loaded mapping.
func FromRecords(records map[string]models.WordRecord) *Store {
	s := NewStore()
	for word, rec := range records {
		r := rec
		s.records[word] = &r
	}
	return s
}

// Load reads the vocabulary through the given storage.
func Load(ctx context.Context, storage Storage) (*Store, error) {
	records, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w: %w", ErrPersistence, err)
	}
	return FromRecords(records), nil
}

// SaveTo writes a snapshot of the store through the given storage.
func (s *Store) SaveTo(ctx context.Context, storage Storage) error {
	if err := storage.Save(ctx, s.Snapshot()); err != nil {
		return fmt.Errorf("save vocabulary: %w: %w", ErrPersistence, err)
	}
	return nil
}

func (s *Store) Len() int {
	return len(s.records)
}

// Keys returns all words in lexical order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the live record for a word. Mutations through the pointer are
// visible to every later reader of the store.
func (s *Store) Get(word string) (*models.WordRecord, bool) {
	rec, ok := s.records[word]
	return rec, ok
}

// Add creates a new record with zero score and streak.
func (s *Store) Add(word, translation, category string, now time.Time) (*models.WordRecord, error) {
	word = strings.TrimSpace(word)
	translation = strings.TrimSpace(translation)
	if word == "" || translation == "" {
		return nil, ErrEmptyWord
	}
	if _, exists := s.records[word]; exists {
		return nil, fmt.Errorf("%q: %w", word, ErrWordExists)
	}

	rec := &models.WordRecord{
		Translation:   translation,
		LastPracticed: now,
		Category:      strings.TrimSpace(category),
		Version:       models.CurrentRecordVersion,
	}
	s.records[word] = rec
	return rec, nil
}

func (s *Store) Remove(word string) error {
	if _, ok := s.records[word]; !ok {
		return fmt.Errorf("%q: %w", word, ErrWordNotFound)
	}
	delete(s.records, word)
	return nil
}

func (s *Store) SetTranslation(word, translation string) error {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return ErrEmptyWord
	}
	rec, ok := s.records[word]
	if !ok {
		return fmt.Errorf("%q: %w", word, ErrWordNotFound)
	}
	rec.Translation = translation
	return nil
}

func (s *Store) SetCategory(word, category string) error {
	rec, ok := s.records[word]
	if !ok {
		return fmt.Errorf("%q: %w", word, ErrWordNotFound)
	}
	rec.Category = strings.TrimSpace(category)
	return nil
}

func (s *Store) SetFavorite(word string, favorite bool) error {
	rec, ok := s.records[word]
	if !ok {
		return fmt.Errorf("%q: %w", word, ErrWordNotFound)
	}
	rec.IsFavorite = favorite
	return nil
}

// ResetStats zeroes score and streak for every word and marks them as never
// practiced.
func (s *Store) ResetStats() {
	for _, rec := range s.records {
		rec.Score = 0
		rec.Streak = 0
		rec.LastPracticed = time.Unix(0, 0)
	}
}

// Snapshot returns a copy of all records.
func (s *Store) Snapshot() map[string]models.WordRecord {
	out := make(map[string]models.WordRecord, len(s.records))
	for word, rec := range s.records {
		out[word] = *rec
	}
	return out
}

// Categories returns the distinct non-empty categories in lexical order.
func (s *Store) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range s.records {
		if rec.Category != "" && !seen[rec.Category] {
			seen[rec.Category] = true
			out = append(out, rec.Category)
		}
	}
	sort.Strings(out)
	return out
}
