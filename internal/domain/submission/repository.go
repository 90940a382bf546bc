package submission

import "context"

// Repository describes submission persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, s Submission) error
	GetByID(ctx context.Context, submissionID string) (Submission, bool, error)
	ListByRound(ctx context.Context, roundID string) ([]Submission, error)
	CountByRound(ctx context.Context, roundID string) (int, error)
	CountByRoundAndUser(ctx context.Context, roundID, userID string) (int, error)
	// DeleteByRound removes every submission of the round and reports how many
	// rows were deleted. Used by the resubmit flow when submissionsPerUser
	// changes mid-phase.
	DeleteByRound(ctx context.Context, roundID string) (int, error)
	SetTrollFlag(ctx context.Context, submissionID string, isTroll bool) (Submission, bool, error)
}

// CommentRepository is the cascade hook for submission comments. Comments are
// written elsewhere; this core only deletes them alongside their submissions.
type CommentRepository interface {
	DeleteByRound(ctx context.Context, roundID string) (int, error)
}
