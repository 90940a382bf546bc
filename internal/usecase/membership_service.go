package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/user"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

// MembershipService manages league membership rows consumed by the voting and
// submission rules.
type MembershipService struct {
	memberships membership.Repository
	leagues     league.Repository
	counters    counter.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewMembershipService(
	memberships membership.Repository,
	leagues league.Repository,
	counters counter.Repository,
	logger *logging.Logger,
) *MembershipService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MembershipService{
		memberships: memberships,
		leagues:     leagues,
		counters:    counters,
		logger:      logger,
		now:         time.Now,
	}
}

// Join adds the caller to a league. JoinedAt is the eligibility cutoff for
// rounds that later enter voting.
func (s *MembershipService) Join(ctx context.Context, actor user.Principal, leagueID string, asSpectator bool) (membership.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.Join")
	defer span.End()

	if actor.UserID == "" {
		return membership.Membership{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}

	lg, exists, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return membership.Membership{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return membership.Membership{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}

	if existing, found, err := s.memberships.Get(ctx, leagueID, actor.UserID); err != nil {
		return membership.Membership{}, fmt.Errorf("get membership: %w", err)
	} else if found {
		return existing, nil
	}

	m := membership.Membership{
		LeagueID:    leagueID,
		UserID:      actor.UserID,
		IsOwner:     lg.OwnerID == actor.UserID,
		IsSpectator: asSpectator,
		JoinedAt:    s.now().UTC(),
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		return membership.Membership{}, fmt.Errorf("create membership: %w", err)
	}

	if err := s.counters.Increment(ctx, counter.KindMembers, leagueID, 1); err != nil {
		s.logger.WarnContext(ctx, "member counter increment failed",
			"league_id", leagueID,
			"error", err,
		)
	}

	return m, nil
}

func (s *MembershipService) ListByLeague(ctx context.Context, leagueID string) ([]membership.Membership, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.ListByLeague")
	defer span.End()

	members, err := s.memberships.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league members: %w", err)
	}

	return members, nil
}

// MemberCount reads the sharded member counter; it may slightly trail
// in-flight joins.
func (s *MembershipService) MemberCount(ctx context.Context, leagueID string) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MembershipService.MemberCount")
	defer span.End()

	n, err := s.counters.Value(ctx, counter.KindMembers, leagueID)
	if err != nil {
		return 0, fmt.Errorf("read member counter: %w", err)
	}

	return n, nil
}
