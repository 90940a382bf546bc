package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/song-league/internal/domain/listen"
)

type listenKey struct {
	userID       string
	submissionID string
}

type ListenRepository struct {
	mu    sync.RWMutex
	items map[listenKey]listen.Progress
}

func NewListenRepository() *ListenRepository {
	return &ListenRepository{items: make(map[listenKey]listen.Progress)}
}

// Record applies the monotonic merge: progress only moves forward and
// completion never reverts.
func (r *ListenRepository) Record(_ context.Context, p listen.Progress) (listen.Progress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := listenKey{p.UserID, p.SubmissionID}
	stored, ok := r.items[key]
	if !ok {
		r.items[key] = p
		return p, nil
	}

	if p.ProgressSeconds > stored.ProgressSeconds {
		stored.ProgressSeconds = p.ProgressSeconds
		stored.UpdatedAt = p.UpdatedAt
	}
	if p.IsCompleted && !stored.IsCompleted {
		stored.IsCompleted = true
		stored.UpdatedAt = p.UpdatedAt
	}
	r.items[key] = stored

	return stored, nil
}

func (r *ListenRepository) Get(_ context.Context, userID, submissionID string) (listen.Progress, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[listenKey{userID, submissionID}]
	if !ok {
		return listen.Progress{}, false, nil
	}

	return p, true, nil
}

func (r *ListenRepository) ListByUserAndRound(_ context.Context, userID, roundID string) ([]listen.Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]listen.Progress, 0)
	for _, p := range r.items {
		if p.UserID == userID && p.RoundID == roundID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmissionID < out[j].SubmissionID })

	return out, nil
}
