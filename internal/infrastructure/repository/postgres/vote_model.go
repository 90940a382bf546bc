package postgres

import "time"

type voteTableModel struct {
	ID                 int64     `db:"id"`
	RoundPublicID      string    `db:"round_public_id"`
	SubmissionPublicID string    `db:"submission_public_id"`
	UserID             string    `db:"user_id"`
	Value              int       `db:"value"`
	UpdatedAt          time.Time `db:"updated_at"`
}
