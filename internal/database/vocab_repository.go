package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/vocabdrill/pkg/models"
	"github.com/jmoiron/sqlx"
)

type wordRow struct {
	Word          string `db:"word"`
	Translation   string `db:"translation"`
	Score         int    `db:"score"`
	Streak        int    `db:"streak"`
	LastPracticed int64  `db:"last_practiced"`
	Category      string `db:"category"`
	IsFavorite    bool   `db:"is_favorite"`
	Version       int    `db:"version"`
}

// VocabRepository stores the vocabulary in the vocab_words table.
type VocabRepository struct {
	db *sqlx.DB
}

func NewVocabRepository(db *sqlx.DB) *VocabRepository {
	return &VocabRepository{db: db}
}

// Load returns every stored word
func (r *VocabRepository) Load(ctx context.Context) (map[string]models.WordRecord, error) {
	var rows []wordRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT word, translation, score, streak, last_practiced, category, is_favorite, version
		FROM vocab_words
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}

	records := make(map[string]models.WordRecord, len(rows))
	for _, row := range rows {
		records[row.Word] = models.WordRecord{
			Translation:   row.Translation,
			Score:         row.Score,
			Streak:        row.Streak,
			LastPracticed: time.Unix(row.LastPracticed, 0),
			Category:      row.Category,
			IsFavorite:    row.IsFavorite,
			Version:       row.Version,
		}
	}
	return records, nil
}

// Save replaces the stored vocabulary with records in a single transaction.
func (r *VocabRepository) Save(ctx context.Context, records map[string]models.WordRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM vocab_words"); err != nil {
		return fmt.Errorf("failed to clear words: %w", err)
	}

	query := tx.Rebind(`
		INSERT INTO vocab_words (word, translation, score, streak, last_practiced, category, is_favorite, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for word, rec := range records {
		var last int64
		if !rec.LastPracticed.IsZero() {
			last = rec.LastPracticed.Unix()
		}
		_, err := tx.ExecContext(ctx, query,
			word,
			rec.Translation,
			rec.Score,
			rec.Streak,
			last,
			rec.Category,
			rec.IsFavorite,
			models.CurrentRecordVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to insert word %q: %w", word, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit words: %w", err)
	}
	return nil
}
