package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Connect opens the database and makes sure the schema exists.
// For sqlite the dsn is a file path; for postgres it is a connection URL.
func Connect(driver, dsn string) (*sqlx.DB, error) {
	if driver == DriverSQLite && dsn != ":memory:" {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite doesn't support multiple writers
		db.SetMaxIdleConns(1)
	}

	if err := InitSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates the tables if they don't exist
func InitSchema(db *sqlx.DB) error {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == DriverPostgres {
		idColumn = "id SERIAL PRIMARY KEY"
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vocab_words (
			word TEXT PRIMARY KEY,
			translation TEXT NOT NULL,
			score INTEGER NOT NULL DEFAULT 0,
			streak INTEGER NOT NULL DEFAULT 0,
			last_practiced BIGINT NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			is_favorite BOOLEAN NOT NULL DEFAULT false,
			version INTEGER NOT NULL DEFAULT 2
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create vocab_words table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS practice_results (
			` + idColumn + `,
			session_id TEXT NOT NULL,
			mode TEXT NOT NULL,
			total_words INTEGER NOT NULL,
			correct_words INTEGER NOT NULL,
			wrong_words INTEGER NOT NULL,
			aborted BOOLEAN NOT NULL DEFAULT false,
			started_at BIGINT NOT NULL,
			finished_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create practice_results table: %w", err)
	}

	return nil
}
