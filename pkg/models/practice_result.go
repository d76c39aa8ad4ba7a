package models

import "time"

// PracticeResult records the outcome of one practice session
type PracticeResult struct {
	ID           int64     `json:"id" db:"id"`
	SessionID    string    `json:"session_id" db:"session_id"`
	Mode         string    `json:"mode" db:"mode"` // random, multipleChoice, trueFalse
	TotalWords   int       `json:"total_words" db:"total_words"`
	CorrectWords int       `json:"correct_words" db:"correct_words"`
	WrongWords   int       `json:"wrong_words" db:"wrong_words"`
	Aborted      bool      `json:"aborted" db:"aborted"`
	StartedAt    time.Time `json:"started_at" db:"-"`
	FinishedAt   time.Time `json:"finished_at" db:"-"`
}
