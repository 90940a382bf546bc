package postgres

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/counter"
)

// CounterRepository stores each logical counter as NumShards independent
// rows. Increments upsert one randomly chosen shard row, so concurrent
// writers update different rows instead of serializing on one; reads sum the
// shard column.
type CounterRepository struct {
	db *sqlx.DB
}

func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

func (r *CounterRepository) Increment(ctx context.Context, kind counter.Kind, ownerID string, delta int64) error {
	const query = `
INSERT INTO sharded_counters (kind, owner_id, shard, value)
VALUES ($1, $2, $3, $4)
ON CONFLICT (kind, owner_id, shard)
DO UPDATE SET value = sharded_counters.value + EXCLUDED.value`

	shard := rand.IntN(counter.NumShards)
	if _, err := r.db.ExecContext(ctx, query, string(kind), ownerID, shard, delta); err != nil {
		return fmt.Errorf("increment counter shard: %w", err)
	}

	return nil
}

func (r *CounterRepository) Value(ctx context.Context, kind counter.Kind, ownerID string) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total,
		`SELECT COALESCE(SUM(value), 0) FROM sharded_counters WHERE kind = $1 AND owner_id = $2`,
		string(kind), ownerID)
	if err != nil {
		return 0, fmt.Errorf("sum counter shards: %w", err)
	}

	return total, nil
}
