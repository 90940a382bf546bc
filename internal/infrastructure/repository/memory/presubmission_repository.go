package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/presubmission"
)

type presubKey struct {
	roundID string
	userID  string
}

type PresubmissionRepository struct {
	mu    sync.RWMutex
	items map[presubKey]presubmission.Intent
}

func NewPresubmissionRepository() *PresubmissionRepository {
	return &PresubmissionRepository{items: make(map[presubKey]presubmission.Intent)}
}

func (r *PresubmissionRepository) Upsert(_ context.Context, intent presubmission.Intent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := presubKey{intent.RoundID, intent.UserID}
	if existing, ok := r.items[key]; ok && existing.MaterializedAt == nil {
		intent.CreatedAt = existing.CreatedAt
	}
	intent.MaterializedAt = nil
	r.items[key] = intent

	return nil
}

func (r *PresubmissionRepository) ListPendingByRound(_ context.Context, roundID string) ([]presubmission.Intent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]presubmission.Intent, 0)
	for key, intent := range r.items {
		if key.roundID == roundID && intent.MaterializedAt == nil {
			out = append(out, intent)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out, nil
}

func (r *PresubmissionRepository) ListRoundIDsWithPending(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0)
	for key, intent := range r.items {
		if intent.MaterializedAt != nil {
			continue
		}
		if _, ok := seen[key.roundID]; ok {
			continue
		}
		seen[key.roundID] = struct{}{}
		out = append(out, key.roundID)
	}
	sort.Strings(out)

	return out, nil
}

func (r *PresubmissionRepository) MarkMaterialized(_ context.Context, roundID, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := presubKey{roundID, userID}
	intent, ok := r.items[key]
	if !ok {
		return fmt.Errorf("presubmission round=%s user=%s not found", roundID, userID)
	}
	intent.MaterializedAt = &at
	r.items[key] = intent

	return nil
}
