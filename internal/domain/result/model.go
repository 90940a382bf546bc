package result

import "time"

// Result is the immutable scored outcome of one submission in a finished
// round. Rows are produced exactly once per round; recomputation happens only
// through explicit admin re-runs.
type Result struct {
	RoundID      string
	SubmissionID string
	UserID       string
	Points       int
	IsWinner     bool
	IsPenalized  bool
	CreatedAt    time.Time
}
