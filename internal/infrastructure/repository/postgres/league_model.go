package postgres

import "time"

type leagueTableModel struct {
	ID                      int64      `db:"id"`
	PublicID                string     `db:"public_id"`
	Name                    string     `db:"name"`
	OwnerUserID             string     `db:"owner_user_id"`
	MaxUpvotes              int        `db:"max_upvotes"`
	MaxDownvotes            int        `db:"max_downvotes"`
	LimitVotesPerSong       bool       `db:"limit_votes_per_song"`
	MaxUpvotesPerSong       int        `db:"max_upvotes_per_song"`
	MaxDownvotesPerSong     int        `db:"max_downvotes_per_song"`
	EnforceListenPercentage bool       `db:"enforce_listen_percentage"`
	ListenPercentage        int        `db:"listen_percentage"`
	ListenTimeLimitMinutes  int        `db:"listen_time_limit_minutes"`
	SubmissionDeadlineHours int        `db:"submission_deadline_hours"`
	VotingDeadlineHours     int        `db:"voting_deadline_hours"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
	DeletedAt               *time.Time `db:"deleted_at"`
}
