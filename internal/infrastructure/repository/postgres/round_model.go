package postgres

import "time"

type roundTableModel struct {
	ID                  int64      `db:"id"`
	PublicID            string     `db:"public_id"`
	LeaguePublicID      string     `db:"league_public_id"`
	Name                string     `db:"name"`
	Status              string     `db:"status"`
	OpensAt             time.Time  `db:"opens_at"`
	SubmissionDeadline  time.Time  `db:"submission_deadline"`
	VotingDeadline      time.Time  `db:"voting_deadline"`
	SubmissionsPerUser  int        `db:"submissions_per_user"`
	MaxUpvotes          *int       `db:"max_upvotes"`
	MaxDownvotes        *int       `db:"max_downvotes"`
	VotingStartedAt     *time.Time `db:"voting_started_at"`
	FinishedAt          *time.Time `db:"finished_at"`
	LastTransitionCause string     `db:"last_transition_cause"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}
