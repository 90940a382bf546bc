package memory

import (
	"context"
	"sync"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/standing"
)

type standingKey struct {
	leagueID string
	userID   string
}

type appliedKey struct {
	leagueID string
	roundID  string
}

type StandingRepository struct {
	mu      sync.RWMutex
	items   map[standingKey]standing.Standing
	applied map[appliedKey]struct{}
	now     func() time.Time
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{
		items:   make(map[standingKey]standing.Standing),
		applied: make(map[appliedKey]struct{}),
		now:     time.Now,
	}
}

func (r *StandingRepository) ListByLeague(_ context.Context, leagueID string) ([]standing.Standing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]standing.Standing, 0)
	for key, s := range r.items {
		if key.leagueID == leagueID {
			out = append(out, s)
		}
	}

	return out, nil
}

func (r *StandingRepository) ApplyRound(_ context.Context, leagueID, roundID string, deltas []standing.Delta) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	marker := appliedKey{leagueID, roundID}
	if _, done := r.applied[marker]; done {
		return false, nil
	}

	now := r.now().UTC()
	for _, d := range deltas {
		key := standingKey{leagueID, d.UserID}
		s, ok := r.items[key]
		if !ok {
			s = standing.Standing{LeagueID: leagueID, UserID: d.UserID}
		}
		s.TotalPoints += d.Points
		s.TotalWins += d.Wins
		s.UpdatedAt = now
		r.items[key] = s
	}
	r.applied[marker] = struct{}{}

	return true, nil
}
