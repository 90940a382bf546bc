package vote

import "context"

// Repository describes vote persistence needs from use cases.
//
// Replace and Delete are the only writers and both are keyed by
// (round, submission, user), so the uniqueness invariant lives here rather
// than in callers. Replace re-validates the caps against the rows visible to
// the same atomic unit that writes the vote and returns the resulting usage;
// implementations must serialize concurrent replaces for the same
// (round, user) so the quota holds even across processes sharing one store.
// UsageByUser must reflect all committed writes at call time.
type Repository interface {
	Replace(ctx context.Context, v Vote, maxUp, maxDown int) (Usage, error)
	Delete(ctx context.Context, roundID, submissionID, userID string) error
	Get(ctx context.Context, roundID, submissionID, userID string) (Vote, bool, error)
	UsageByUser(ctx context.Context, roundID, userID string) (Usage, error)
	ListByRound(ctx context.Context, roundID string) ([]Vote, error)
	CountByRound(ctx context.Context, roundID string) (int, error)
}
