package postgres

import "time"

type listenTableModel struct {
	ID                 int64     `db:"id"`
	UserID             string    `db:"user_id"`
	SubmissionPublicID string    `db:"submission_public_id"`
	RoundPublicID      string    `db:"round_public_id"`
	ProgressSeconds    int       `db:"progress_seconds"`
	IsCompleted        bool      `db:"is_completed"`
	UpdatedAt          time.Time `db:"updated_at"`
}
