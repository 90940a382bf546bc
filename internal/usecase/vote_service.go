package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/user"
	"github.com/riskibarqy/song-league/internal/domain/vote"
	"github.com/riskibarqy/song-league/internal/platform/logging"
	"github.com/riskibarqy/song-league/internal/platform/resilience"
)

// VoteService is the vote-quota ledger. Every mutation runs inside a
// per-(round, user) critical section with a fresh usage read, and the
// repository re-checks the caps when it writes, so racing casts from the same
// member can never overspend the quota even across processes.
type VoteService struct {
	votes       vote.Repository
	rounds      round.Repository
	leagues     league.Repository
	memberships membership.Repository
	submissions submission.Repository
	gate        *ListenService
	counters    counter.Repository
	locks       resilience.KeyedMutex
	logger      *logging.Logger
	now         func() time.Time
}

func NewVoteService(
	votes vote.Repository,
	rounds round.Repository,
	leagues league.Repository,
	memberships membership.Repository,
	submissions submission.Repository,
	gate *ListenService,
	counters counter.Repository,
	logger *logging.Logger,
) *VoteService {
	if logger == nil {
		logger = logging.Default()
	}

	return &VoteService{
		votes:       votes,
		rounds:      rounds,
		leagues:     leagues,
		memberships: memberships,
		submissions: submissions,
		gate:        gate,
		counters:    counters,
		logger:      logger,
		now:         time.Now,
	}
}

// Outcome is a member's vote spend after a ledger operation.
type Outcome struct {
	UpUsed   int
	DownUsed int
	MaxUp    int
	MaxDown  int
	IsFinal  bool
}

// CastVote records or replaces the caller's vote on a submission. The
// preconditions are checked in a fixed order so a request failing several of
// them always reports the same reason.
func (s *VoteService) CastVote(ctx context.Context, actor user.Principal, roundID, submissionID string, value int) (Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VoteService.CastVote")
	defer span.End()

	if actor.UserID == "" {
		return Outcome{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}
	if value != vote.ValueUp && value != vote.ValueDown {
		return Outcome{}, fmt.Errorf("%w: vote value must be +1 or -1", ErrInvalidInput)
	}

	sub, exists, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get submission: %w", err)
	}
	if !exists || sub.RoundID != roundID {
		return Outcome{}, fmt.Errorf("%w: submission=%s in round=%s", ErrNotFound, submissionID, roundID)
	}

	lg, exists, err := s.leagues.GetByID(ctx, sub.LeagueID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return Outcome{}, fmt.Errorf("%w: league=%s", ErrNotFound, sub.LeagueID)
	}

	unlock := s.locks.Lock(roundID + ":" + actor.UserID)
	defer unlock()

	// Round status and usage are re-read under the lock: the sweeper may have
	// closed voting, and a concurrent cast from the same member may have spent
	// quota, between the handler's view and this critical section.
	r, exists, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return Outcome{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}
	if r.Status != round.StatusVoting {
		return Outcome{}, rejectVote(ReasonRoundNotVoting, fmt.Sprintf("round is %s", r.Status))
	}

	if sub.UserID == actor.UserID {
		return Outcome{}, rejectVote(ReasonSelfVoteForbidden, "cannot vote on your own submission")
	}

	usage, err := s.votes.UsageByUser(ctx, roundID, actor.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read vote usage: %w", err)
	}
	maxUp, maxDown := r.VoteCaps(lg.MaxUpvotes, lg.MaxDownvotes)

	m, memberExists, err := s.memberships.Get(ctx, lg.ID, actor.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get membership: %w", err)
	}
	if !memberExists || !m.CanParticipate() {
		return Outcome{}, rejectVote(ReasonNotEligible, "not an active league member")
	}
	// Late joiners cannot open a fresh allocation, but a member who already
	// started voting before the cutoff check may keep spending it.
	if r.VotingStartedAt != nil && !m.JoinedAt.Before(*r.VotingStartedAt) && usage.Total() == 0 {
		return Outcome{}, rejectVote(ReasonNotEligible, "joined after voting started")
	}

	if usage.IsFinal(maxUp, maxDown) {
		return Outcome{}, rejectVote(ReasonVotesFinal, "vote allocation is locked")
	}

	subs, err := s.submissions.ListByRound(ctx, roundID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list round submissions: %w", err)
	}
	gate, err := s.gate.Evaluate(ctx, lg, roundID, actor.UserID, subs)
	if err != nil {
		return Outcome{}, err
	}
	if !gate.CanVote {
		return Outcome{}, &VoteRejectedError{
			Reason:               ReasonListenRequirementNotMet,
			BlockingSubmissionID: gate.BlockingSubmissionID,
			Detail:               "finish listening to every submission first",
		}
	}

	// One row per (round, submission, user) means the caller's tally on this
	// submission is at most one vote, so the per-submission cap bites only
	// when the configured cap is zero for the requested direction.
	if lg.LimitVotesPerSong {
		if value > 0 && lg.MaxUpvotesPerSong < 1 {
			return Outcome{}, rejectVote(ReasonSubmissionCapExceeded, "upvotes are disabled per submission")
		}
		if value < 0 && lg.MaxDownvotesPerSong < 1 {
			return Outcome{}, rejectVote(ReasonSubmissionCapExceeded, "downvotes are disabled per submission")
		}
	}

	existing, hasExisting, err := s.votes.Get(ctx, roundID, submissionID, actor.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get existing vote: %w", err)
	}
	if hasExisting && existing.Value == value {
		return outcomeOf(usage, maxUp, maxDown), nil
	}

	next := usage
	if hasExisting {
		if existing.Value > 0 {
			next.Upvotes--
		} else {
			next.Downvotes--
		}
	}
	if value > 0 {
		next.Upvotes++
	} else {
		next.Downvotes++
	}
	if next.Upvotes > maxUp {
		return Outcome{}, rejectVote(ReasonQuotaExceeded, fmt.Sprintf("upvote quota %d exhausted", maxUp))
	}
	if next.Downvotes > maxDown {
		return Outcome{}, rejectVote(ReasonQuotaExceeded, fmt.Sprintf("downvote quota %d exhausted", maxDown))
	}

	v := vote.Vote{
		RoundID:      roundID,
		SubmissionID: submissionID,
		UserID:       actor.UserID,
		Value:        value,
		UpdatedAt:    s.now().UTC(),
	}
	// The repository re-validates the caps inside the same atomic unit that
	// writes the vote, so the quota holds even when another process shares
	// the store and this critical section cannot see its writes.
	next, err = s.votes.Replace(ctx, v, maxUp, maxDown)
	if err != nil {
		if errors.Is(err, vote.ErrQuotaExceeded) {
			return Outcome{}, rejectVote(ReasonQuotaExceeded, "vote quota exhausted")
		}
		return Outcome{}, fmt.Errorf("write vote: %w", err)
	}

	if !usage.IsFinal(maxUp, maxDown) && next.IsFinal(maxUp, maxDown) {
		if err := s.counters.Increment(ctx, counter.KindFinalizedVoters, lg.ID, 1); err != nil {
			s.logger.WarnContext(ctx, "finalized-voter counter increment failed",
				"league_id", lg.ID,
				"round_id", roundID,
				"error", err,
			)
		}
	}

	return outcomeOf(next, maxUp, maxDown), nil
}

// RetractVote removes the caller's vote on a submission. Final allocations
// stay locked; retraction is only possible while quota is still open.
func (s *VoteService) RetractVote(ctx context.Context, actor user.Principal, roundID, submissionID string) (Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VoteService.RetractVote")
	defer span.End()

	if actor.UserID == "" {
		return Outcome{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}

	unlock := s.locks.Lock(roundID + ":" + actor.UserID)
	defer unlock()

	r, exists, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return Outcome{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}
	if r.Status != round.StatusVoting {
		return Outcome{}, rejectVote(ReasonRoundNotVoting, fmt.Sprintf("round is %s", r.Status))
	}

	lg, exists, err := s.leagues.GetByID(ctx, r.LeagueID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return Outcome{}, fmt.Errorf("%w: league=%s", ErrNotFound, r.LeagueID)
	}
	maxUp, maxDown := r.VoteCaps(lg.MaxUpvotes, lg.MaxDownvotes)

	usage, err := s.votes.UsageByUser(ctx, roundID, actor.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read vote usage: %w", err)
	}
	if usage.IsFinal(maxUp, maxDown) {
		return Outcome{}, rejectVote(ReasonVotesFinal, "vote allocation is locked")
	}

	existing, hasExisting, err := s.votes.Get(ctx, roundID, submissionID, actor.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get existing vote: %w", err)
	}
	if !hasExisting {
		return Outcome{}, fmt.Errorf("%w: no vote on submission=%s", ErrNotFound, submissionID)
	}

	if err := s.votes.Delete(ctx, roundID, submissionID, actor.UserID); err != nil {
		return Outcome{}, fmt.Errorf("delete vote: %w", err)
	}

	next := usage
	if existing.Value > 0 {
		next.Upvotes--
	} else {
		next.Downvotes--
	}

	return outcomeOf(next, maxUp, maxDown), nil
}

// Usage reports the caller's current spend in a round.
func (s *VoteService) Usage(ctx context.Context, actor user.Principal, roundID string) (Outcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VoteService.Usage")
	defer span.End()

	if actor.UserID == "" {
		return Outcome{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}

	r, exists, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return Outcome{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}
	lg, exists, err := s.leagues.GetByID(ctx, r.LeagueID)
	if err != nil {
		return Outcome{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return Outcome{}, fmt.Errorf("%w: league=%s", ErrNotFound, r.LeagueID)
	}

	usage, err := s.votes.UsageByUser(ctx, roundID, actor.UserID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read vote usage: %w", err)
	}
	maxUp, maxDown := r.VoteCaps(lg.MaxUpvotes, lg.MaxDownvotes)

	return outcomeOf(usage, maxUp, maxDown), nil
}

func outcomeOf(u vote.Usage, maxUp, maxDown int) Outcome {
	return Outcome{
		UpUsed:   u.Upvotes,
		DownUsed: u.Downvotes,
		MaxUp:    maxUp,
		MaxDown:  maxDown,
		IsFinal:  u.IsFinal(maxUp, maxDown),
	}
}
