package round

import (
	"fmt"
	"time"
)

// Status is the lifecycle phase of a round. The only legal forward path is
// submissions -> voting -> finished; rollback is the single backward move
// (voting -> submissions) and is always an explicit admin action.
type Status string

const (
	StatusSubmissions Status = "submissions"
	StatusVoting      Status = "voting"
	StatusFinished    Status = "finished"
)

// TransitionCause distinguishes how a round moved between phases in audit and
// event data.
type TransitionCause string

const (
	CauseManual   TransitionCause = "manual"
	CauseAuto     TransitionCause = "auto"
	CauseRollback TransitionCause = "rollback"
)

// Round is one submit -> vote -> score cycle inside a league.
type Round struct {
	ID                 string
	LeagueID           string
	Name               string
	Status             Status
	OpensAt            time.Time
	SubmissionDeadline time.Time
	VotingDeadline     time.Time
	SubmissionsPerUser int
	// MaxUpvotes / MaxDownvotes override the league defaults when set.
	MaxUpvotes          *int
	MaxDownvotes        *int
	VotingStartedAt     *time.Time
	FinishedAt          *time.Time
	LastTransitionCause TransitionCause
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (r Round) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("round id is required")
	}
	if r.LeagueID == "" {
		return fmt.Errorf("round league id is required")
	}
	switch r.Status {
	case StatusSubmissions, StatusVoting, StatusFinished:
	default:
		return fmt.Errorf("invalid round status %q", r.Status)
	}
	if r.SubmissionsPerUser <= 0 {
		return fmt.Errorf("round submissions per user must be > 0")
	}
	if !r.VotingDeadline.After(r.SubmissionDeadline) {
		return fmt.Errorf("round voting deadline must be after submission deadline")
	}

	return nil
}

// IsOpen reports whether the submissions phase has started accepting
// interactive submissions.
func (r Round) IsOpen(now time.Time) bool {
	return r.Status == StatusSubmissions && !now.Before(r.OpensAt)
}

// VoteCaps resolves the effective per-round vote quota, preferring round-level
// overrides over league defaults.
func (r Round) VoteCaps(defaultUp, defaultDown int) (int, int) {
	up := defaultUp
	down := defaultDown
	if r.MaxUpvotes != nil {
		up = *r.MaxUpvotes
	}
	if r.MaxDownvotes != nil {
		down = *r.MaxDownvotes
	}

	return up, down
}

// CanTransition validates the phase graph without looking at actor
// permissions or round contents.
func CanTransition(from, to Status) bool {
	switch {
	case from == StatusSubmissions && to == StatusVoting:
		return true
	case from == StatusVoting && to == StatusFinished:
		return true
	case from == StatusVoting && to == StatusSubmissions:
		return true
	default:
		return false
	}
}
