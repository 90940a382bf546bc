package postgres

import "time"

type membershipTableModel struct {
	ID                   int64     `db:"id"`
	LeaguePublicID       string    `db:"league_public_id"`
	UserID               string    `db:"user_id"`
	IsOwner              bool      `db:"is_owner"`
	IsManager            bool      `db:"is_manager"`
	IsSpectator          bool      `db:"is_spectator"`
	TrollSubmissionCount int       `db:"troll_submission_count"`
	IsBanned             bool      `db:"is_banned"`
	JoinedAt             time.Time `db:"joined_at"`
}
