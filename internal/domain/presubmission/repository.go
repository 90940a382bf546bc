package presubmission

import (
	"context"
	"time"
)

// Repository describes presubmission persistence needs from use cases.
// Intents are keyed by (round, user): Upsert replaces a prior pending intent.
type Repository interface {
	Upsert(ctx context.Context, intent Intent) error
	ListPendingByRound(ctx context.Context, roundID string) ([]Intent, error)
	ListRoundIDsWithPending(ctx context.Context) ([]string, error)
	MarkMaterialized(ctx context.Context, roundID, userID string, at time.Time) error
}
