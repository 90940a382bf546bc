package result

import "context"

// Repository describes round-result persistence needs from use cases.
type Repository interface {
	// CreateAll persists the full result set of a round in one atomic write.
	// Implementations must reject a second write for the same round.
	CreateAll(ctx context.Context, roundID string, results []Result) error
	ListByRound(ctx context.Context, roundID string) ([]Result, error)
	ExistsByRound(ctx context.Context, roundID string) (bool, error)
}
