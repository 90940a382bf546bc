package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/song-league/internal/domain/vote"
)

type voteKey struct {
	roundID      string
	submissionID string
	userID       string
}

type VoteRepository struct {
	mu    sync.RWMutex
	items map[voteKey]vote.Vote
}

func NewVoteRepository() *VoteRepository {
	return &VoteRepository{items: make(map[voteKey]vote.Vote)}
}

// Replace re-counts the member's spend under the write lock before touching
// the map, so racing casts cannot both pass a stale cap check.
func (r *VoteRepository) Replace(_ context.Context, v vote.Vote, maxUp, maxDown int) (vote.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var usage vote.Usage
	for key, existing := range r.items {
		if key.roundID != v.RoundID || key.userID != v.UserID || key.submissionID == v.SubmissionID {
			continue
		}
		if existing.Value > 0 {
			usage.Upvotes++
		} else {
			usage.Downvotes++
		}
	}
	if v.Value > 0 {
		usage.Upvotes++
	} else {
		usage.Downvotes++
	}
	if usage.Upvotes > maxUp || usage.Downvotes > maxDown {
		return vote.Usage{}, vote.ErrQuotaExceeded
	}

	r.items[voteKey{v.RoundID, v.SubmissionID, v.UserID}] = v

	return usage, nil
}

func (r *VoteRepository) Delete(_ context.Context, roundID, submissionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, voteKey{roundID, submissionID, userID})

	return nil
}

func (r *VoteRepository) Get(_ context.Context, roundID, submissionID, userID string) (vote.Vote, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items[voteKey{roundID, submissionID, userID}]
	if !ok {
		return vote.Vote{}, false, nil
	}

	return v, true, nil
}

func (r *VoteRepository) UsageByUser(_ context.Context, roundID, userID string) (vote.Usage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var usage vote.Usage
	for key, v := range r.items {
		if key.roundID != roundID || key.userID != userID {
			continue
		}
		if v.Value > 0 {
			usage.Upvotes++
		} else {
			usage.Downvotes++
		}
	}

	return usage, nil
}

func (r *VoteRepository) ListByRound(_ context.Context, roundID string) ([]vote.Vote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vote.Vote, 0)
	for key, v := range r.items {
		if key.roundID == roundID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmissionID != out[j].SubmissionID {
			return out[i].SubmissionID < out[j].SubmissionID
		}
		return out[i].UserID < out[j].UserID
	})

	return out, nil
}

func (r *VoteRepository) CountByRound(_ context.Context, roundID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for key := range r.items {
		if key.roundID == roundID {
			count++
		}
	}

	return count, nil
}
