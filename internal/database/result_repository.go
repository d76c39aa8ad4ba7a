package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/vocabdrill/pkg/models"
	"github.com/jmoiron/sqlx"
)

type resultRow struct {
	ID           int64  `db:"id"`
	SessionID    string `db:"session_id"`
	Mode         string `db:"mode"`
	TotalWords   int    `db:"total_words"`
	CorrectWords int    `db:"correct_words"`
	WrongWords   int    `db:"wrong_words"`
	Aborted      bool   `db:"aborted"`
	StartedAt    int64  `db:"started_at"`
	FinishedAt   int64  `db:"finished_at"`
}

// ResultTotals aggregates all recorded sessions
type ResultTotals struct {
	Sessions int `db:"sessions"`
	Correct  int `db:"correct"`
	Wrong    int `db:"wrong"`
}

// Accuracy returns the share of correct answers over all sessions.
func (t ResultTotals) Accuracy() float64 {
	if t.Correct+t.Wrong == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Correct+t.Wrong)
}

// ResultRepository handles the practice session history
type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Create inserts a practice result and sets its ID
func (r *ResultRepository) Create(ctx context.Context, result *models.PracticeResult) error {
	if result.FinishedAt.IsZero() {
		result.FinishedAt = time.Now()
	}
	if result.StartedAt.IsZero() {
		result.StartedAt = result.FinishedAt
	}
	args := []interface{}{
		result.SessionID,
		result.Mode,
		result.TotalWords,
		result.CorrectWords,
		result.WrongWords,
		result.Aborted,
		result.StartedAt.Unix(),
		result.FinishedAt.Unix(),
	}

	if r.db.DriverName() == DriverPostgres {
		query := `
			INSERT INTO practice_results (
				session_id, mode, total_words, correct_words, wrong_words, aborted, started_at, finished_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`
		if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&result.ID); err != nil {
			return fmt.Errorf("failed to create practice result: %w", err)
		}
		return nil
	}

	// SQLite (no RETURNING)
	query := `
		INSERT INTO practice_results (
			session_id, mode, total_words, correct_words, wrong_words, aborted, started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create practice result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get practice result id: %w", err)
	}
	result.ID = id
	return nil
}

// Recent returns the latest practice results, newest first
func (r *ResultRepository) Recent(ctx context.Context, limit int) ([]models.PracticeResult, error) {
	var rows []resultRow
	query := r.db.Rebind(`
		SELECT id, session_id, mode, total_words, correct_words, wrong_words, aborted, started_at, finished_at
		FROM practice_results
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get practice results: %w", err)
	}

	results := make([]models.PracticeResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, models.PracticeResult{
			ID:           row.ID,
			SessionID:    row.SessionID,
			Mode:         row.Mode,
			TotalWords:   row.TotalWords,
			CorrectWords: row.CorrectWords,
			WrongWords:   row.WrongWords,
			Aborted:      row.Aborted,
			StartedAt:    time.Unix(row.StartedAt, 0),
			FinishedAt:   time.Unix(row.FinishedAt, 0),
		})
	}
	return results, nil
}

// Totals sums the answers of every recorded session
func (r *ResultRepository) Totals(ctx context.Context) (ResultTotals, error) {
	var totals ResultTotals
	err := r.db.GetContext(ctx, &totals, `
		SELECT
			COUNT(*) AS sessions,
			COALESCE(SUM(correct_words), 0) AS correct,
			COALESCE(SUM(wrong_words), 0) AS wrong
		FROM practice_results
	`)
	if err != nil {
		return totals, fmt.Errorf("failed to get practice totals: %w", err)
	}
	return totals, nil
}
