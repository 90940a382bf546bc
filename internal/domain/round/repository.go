package round

import (
	"context"
	"time"
)

// StatusUpdate carries the fields a CAS transition writes together with the
// new status. Nil pointers leave the stored value untouched; ClearVotingStart
// resets VotingStartedAt (rollback).
type StatusUpdate struct {
	Status             Status
	Cause              TransitionCause
	SubmissionDeadline *time.Time
	VotingDeadline     *time.Time
	VotingStartedAt    *time.Time
	FinishedAt         *time.Time
	ClearVotingStart   bool
}

// ConfigUpdate carries admin-editable round settings.
type ConfigUpdate struct {
	Name               *string
	SubmissionsPerUser *int
	MaxUpvotes         *int
	MaxDownvotes       *int
}

// Repository describes round persistence needs from use cases. All mutating
// operations that race with concurrent transitions are compare-and-set on the
// expected current status: ok=false means the stored status no longer matches
// and nothing was written.
type Repository interface {
	Create(ctx context.Context, r Round) error
	GetByID(ctx context.Context, roundID string) (Round, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Round, error)
	ListDueSubmissionRounds(ctx context.Context, now time.Time) ([]Round, error)
	ListDueVotingRounds(ctx context.Context, now time.Time) ([]Round, error)

	UpdateStatusCAS(ctx context.Context, roundID string, expected Status, update StatusUpdate) (Round, bool, error)
	UpdateDeadlineCAS(ctx context.Context, roundID string, expected Status, deadline time.Time) (Round, bool, error)
	UpdateConfigCAS(ctx context.Context, roundID string, expected Status, update ConfigUpdate) (Round, bool, error)
}
