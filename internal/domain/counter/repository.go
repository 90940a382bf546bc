package counter

import "context"

// Repository describes sharded-counter persistence. Increment picks a shard
// for the caller; Value sums every shard of the logical counter. Counts are
// monotonic under concurrent increments but a read may trail in-flight writes.
type Repository interface {
	Increment(ctx context.Context, kind Kind, ownerID string, delta int64) error
	Value(ctx context.Context, kind Kind, ownerID string) (int64, error)
}
