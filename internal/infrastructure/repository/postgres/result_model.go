package postgres

import "time"

type resultTableModel struct {
	ID                 int64     `db:"id"`
	RoundPublicID      string    `db:"round_public_id"`
	SubmissionPublicID string    `db:"submission_public_id"`
	UserID             string    `db:"user_id"`
	Points             int       `db:"points"`
	IsWinner           bool      `db:"is_winner"`
	IsPenalized        bool      `db:"is_penalized"`
	CreatedAt          time.Time `db:"created_at"`
}
