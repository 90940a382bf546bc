package postgres

import "time"

type standingTableModel struct {
	ID             int64     `db:"id"`
	LeaguePublicID string    `db:"league_public_id"`
	UserID         string    `db:"user_id"`
	TotalPoints    int       `db:"total_points"`
	TotalWins      int       `db:"total_wins"`
	UpdatedAt      time.Time `db:"updated_at"`
}
