package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/song-league/internal/domain/result"
)

type ResultRepository struct {
	mu      sync.RWMutex
	byRound map[string][]result.Result
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{byRound: make(map[string][]result.Result)}
}

func (r *ResultRepository) CreateAll(_ context.Context, roundID string, results []result.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRound[roundID]; exists {
		return fmt.Errorf("results for round %s already exist", roundID)
	}

	stored := make([]result.Result, len(results))
	copy(stored, results)
	r.byRound[roundID] = stored

	return nil
}

func (r *ResultRepository) ListByRound(_ context.Context, roundID string) ([]result.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byRound[roundID]
	out := make([]result.Result, len(stored))
	copy(out, stored)

	return out, nil
}

func (r *ResultRepository) ExistsByRound(_ context.Context, roundID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byRound[roundID]

	return exists, nil
}
