package listen

import "context"

// Repository describes listen-progress persistence needs from use cases.
// Record must apply monotonically: a lower ProgressSeconds or a false
// IsCompleted never overwrites a higher/true stored value.
type Repository interface {
	Record(ctx context.Context, p Progress) (Progress, error)
	Get(ctx context.Context, userID, submissionID string) (Progress, bool, error)
	ListByUserAndRound(ctx context.Context, userID, roundID string) ([]Progress, error)
}
