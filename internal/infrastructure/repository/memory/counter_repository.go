package memory

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/riskibarqy/song-league/internal/domain/counter"
)

type counterKey struct {
	kind    counter.Kind
	ownerID string
}

// CounterRepository implements sharded counters: each increment lands on a
// random shard with its own mutex, so concurrent writers of the same logical
// counter rarely contend. Reads sum every shard.
type CounterRepository struct {
	shards [counter.NumShards]struct {
		mu     sync.Mutex
		values map[counterKey]int64
	}
}

func NewCounterRepository() *CounterRepository {
	r := &CounterRepository{}
	for i := range r.shards {
		r.shards[i].values = make(map[counterKey]int64)
	}

	return r
}

func (r *CounterRepository) Increment(_ context.Context, kind counter.Kind, ownerID string, delta int64) error {
	s := &r.shards[rand.IntN(counter.NumShards)]

	s.mu.Lock()
	s.values[counterKey{kind, ownerID}] += delta
	s.mu.Unlock()

	return nil
}

func (r *CounterRepository) Value(_ context.Context, kind counter.Kind, ownerID string) (int64, error) {
	var total int64
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.Lock()
		total += s.values[counterKey{kind, ownerID}]
		s.mu.Unlock()
	}

	return total, nil
}
