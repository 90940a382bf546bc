package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/round"
)

type RoundRepository struct {
	mu    sync.RWMutex
	items map[string]round.Round
	now   func() time.Time
}

func NewRoundRepository(rounds []round.Round) *RoundRepository {
	items := make(map[string]round.Round, len(rounds))
	for _, r := range rounds {
		items[r.ID] = r
	}

	return &RoundRepository{
		items: items,
		now:   time.Now,
	}
}

func (r *RoundRepository) Create(_ context.Context, item round.Round) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("round %s already exists", item.ID)
	}
	r.items[item.ID] = item

	return nil
}

func (r *RoundRepository) GetByID(_ context.Context, roundID string) (round.Round, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[roundID]
	if !ok {
		return round.Round{}, false, nil
	}

	return item, true, nil
}

func (r *RoundRepository) ListByLeague(_ context.Context, leagueID string) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]round.Round, 0)
	for _, item := range r.items {
		if item.LeagueID == leagueID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })

	return out, nil
}

func (r *RoundRepository) ListDueSubmissionRounds(_ context.Context, now time.Time) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]round.Round, 0)
	for _, item := range r.items {
		if item.Status == round.StatusSubmissions && !now.Before(item.SubmissionDeadline) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *RoundRepository) ListDueVotingRounds(_ context.Context, now time.Time) ([]round.Round, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]round.Round, 0)
	for _, item := range r.items {
		if item.Status == round.StatusVoting && !now.Before(item.VotingDeadline) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *RoundRepository) UpdateStatusCAS(_ context.Context, roundID string, expected round.Status, update round.StatusUpdate) (round.Round, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[roundID]
	if !ok {
		return round.Round{}, false, fmt.Errorf("round %s not found", roundID)
	}
	if item.Status != expected {
		return item, false, nil
	}

	item.Status = update.Status
	item.LastTransitionCause = update.Cause
	if update.SubmissionDeadline != nil {
		item.SubmissionDeadline = *update.SubmissionDeadline
	}
	if update.VotingDeadline != nil {
		item.VotingDeadline = *update.VotingDeadline
	}
	if update.VotingStartedAt != nil {
		item.VotingStartedAt = update.VotingStartedAt
	}
	if update.FinishedAt != nil {
		item.FinishedAt = update.FinishedAt
	}
	if update.ClearVotingStart {
		item.VotingStartedAt = nil
	}
	item.UpdatedAt = r.now().UTC()
	r.items[roundID] = item

	return item, true, nil
}

func (r *RoundRepository) UpdateDeadlineCAS(_ context.Context, roundID string, expected round.Status, deadline time.Time) (round.Round, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[roundID]
	if !ok {
		return round.Round{}, false, fmt.Errorf("round %s not found", roundID)
	}
	if item.Status != expected {
		return item, false, nil
	}

	switch expected {
	case round.StatusSubmissions:
		// Keep the phase gap when the submission deadline moves past the
		// voting deadline.
		gap := item.VotingDeadline.Sub(item.SubmissionDeadline)
		item.SubmissionDeadline = deadline
		if !item.VotingDeadline.After(deadline) {
			item.VotingDeadline = deadline.Add(gap)
		}
	case round.StatusVoting:
		item.VotingDeadline = deadline
	default:
		return item, false, nil
	}
	item.UpdatedAt = r.now().UTC()
	r.items[roundID] = item

	return item, true, nil
}

func (r *RoundRepository) UpdateConfigCAS(_ context.Context, roundID string, expected round.Status, update round.ConfigUpdate) (round.Round, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[roundID]
	if !ok {
		return round.Round{}, false, fmt.Errorf("round %s not found", roundID)
	}
	if item.Status != expected {
		return item, false, nil
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.SubmissionsPerUser != nil {
		item.SubmissionsPerUser = *update.SubmissionsPerUser
	}
	if update.MaxUpvotes != nil {
		item.MaxUpvotes = update.MaxUpvotes
	}
	if update.MaxDownvotes != nil {
		item.MaxDownvotes = update.MaxDownvotes
	}
	item.UpdatedAt = r.now().UTC()
	r.items[roundID] = item

	return item, true, nil
}
