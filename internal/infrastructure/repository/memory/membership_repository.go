package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/riskibarqy/song-league/internal/domain/membership"
)

type membershipKey struct {
	leagueID string
	userID   string
}

type MembershipRepository struct {
	mu    sync.RWMutex
	items map[membershipKey]membership.Membership
}

func NewMembershipRepository(members []membership.Membership) *MembershipRepository {
	items := make(map[membershipKey]membership.Membership, len(members))
	for _, m := range members {
		items[membershipKey{m.LeagueID, m.UserID}] = m
	}

	return &MembershipRepository{items: items}
}

func (r *MembershipRepository) Create(_ context.Context, m membership.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey{m.LeagueID, m.UserID}
	if _, exists := r.items[key]; exists {
		return fmt.Errorf("membership league=%s user=%s already exists", m.LeagueID, m.UserID)
	}
	r.items[key] = m

	return nil
}

func (r *MembershipRepository) Get(_ context.Context, leagueID, userID string) (membership.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[membershipKey{leagueID, userID}]
	if !ok {
		return membership.Membership{}, false, nil
	}

	return m, true, nil
}

func (r *MembershipRepository) ListByLeague(_ context.Context, leagueID string) ([]membership.Membership, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]membership.Membership, 0)
	for key, m := range r.items {
		if key.leagueID == leagueID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out, nil
}

func (r *MembershipRepository) IncrementTrollCount(_ context.Context, leagueID, userID string) (membership.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := membershipKey{leagueID, userID}
	m, ok := r.items[key]
	if !ok {
		return membership.Membership{}, fmt.Errorf("membership league=%s user=%s not found", leagueID, userID)
	}

	m.TrollSubmissionCount++
	if m.TrollSubmissionCount >= membership.TrollBanThreshold {
		m.IsBanned = true
	}
	r.items[key] = m

	return m, nil
}
