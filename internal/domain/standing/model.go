package standing

import "time"

// Standing is a member's cumulative score inside a league. Totals only grow
// as rounds finish; they decrease only through explicit reset tooling.
type Standing struct {
	LeagueID    string
	UserID      string
	TotalPoints int
	TotalWins   int
	UpdatedAt   time.Time
}

// Delta is the per-user contribution of one finished round.
type Delta struct {
	UserID string
	Points int
	Wins   int
}
