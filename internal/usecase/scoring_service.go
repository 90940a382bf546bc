package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/result"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/vote"
	"github.com/riskibarqy/song-league/internal/platform/logging"
	"github.com/riskibarqy/song-league/internal/platform/resilience"
)

// ScoringService turns the votes of a finished round into an immutable result
// set and forwards the per-user deltas to the standings aggregator. The whole
// calculation is idempotent: results already written short-circuit, standings
// are guarded by an applied-marker, so re-running after a crash is safe.
type ScoringService struct {
	results     result.Repository
	submissions submission.Repository
	votes       vote.Repository
	standings   *StandingsService
	flight      resilience.SingleFlight
	logger      *logging.Logger
	now         func() time.Time
}

func NewScoringService(
	results result.Repository,
	submissions submission.Repository,
	votes vote.Repository,
	standings *StandingsService,
	logger *logging.Logger,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ScoringService{
		results:     results,
		submissions: submissions,
		votes:       votes,
		standings:   standings,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ScoringService) ListResults(ctx context.Context, roundID string) ([]result.Result, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ListResults")
	defer span.End()

	results, err := s.results.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("list round results: %w", err)
	}

	return results, nil
}

// CalculateRound scores one finished round. Concurrent calls for the same
// round collapse into one calculation.
func (s *ScoringService) CalculateRound(ctx context.Context, r round.Round) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.CalculateRound")
	defer span.End()

	_, err, shared := s.flight.Do("score:"+r.ID, func() (any, error) {
		return nil, s.calculate(ctx, r)
	})
	if shared {
		s.logger.DebugContext(ctx, "round scoring joined in-flight calculation", "round_id", r.ID)
	}

	return err
}

func (s *ScoringService) calculate(ctx context.Context, r round.Round) error {
	exists, err := s.results.ExistsByRound(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("check existing results: %w", err)
	}
	if exists {
		s.logger.DebugContext(ctx, "round already scored", "round_id", r.ID)
		return nil
	}

	subs, err := s.submissions.ListByRound(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("list round submissions: %w", err)
	}
	votes, err := s.votes.ListByRound(ctx, r.ID)
	if err != nil {
		return fmt.Errorf("list round votes: %w", err)
	}
	if len(subs) == 0 || len(votes) == 0 {
		// Nothing to score; the round-finish guard should have prevented this.
		s.logger.WarnContext(ctx, "round finished with nothing to score, skipping",
			"round_id", r.ID,
			"submissions", len(subs),
			"votes", len(votes),
		)
		return nil
	}

	results := s.score(r.ID, subs, votes)

	if err := s.results.CreateAll(ctx, r.ID, results); err != nil {
		// A concurrent calculator may have won the write; its result set stands.
		exists, checkErr := s.results.ExistsByRound(ctx, r.ID)
		if checkErr == nil && exists {
			s.logger.DebugContext(ctx, "round scored by concurrent calculator", "round_id", r.ID)
			return nil
		}
		return fmt.Errorf("persist round results: %w", err)
	}

	deltas := resultDeltas(results)
	if err := s.standings.ApplyRound(ctx, r.LeagueID, r.ID, deltas); err != nil {
		return fmt.Errorf("apply round to standings: %w", err)
	}

	s.logger.InfoContext(ctx, "round scored",
		"round_id", r.ID,
		"league_id", r.LeagueID,
		"submissions", len(results),
	)

	return nil
}

// score tallies points per submission and applies the non-voter penalty: a
// member who cast no vote in the round keeps only the downvotes on their
// submissions. The winner is the highest-scoring submission, ties broken by
// ascending submission id so reruns always pick the same one.
func (s *ScoringService) score(roundID string, subs []submission.Submission, votes []vote.Vote) []result.Result {
	upvotes := make(map[string]int, len(subs))
	downvotes := make(map[string]int, len(subs))
	voters := make(map[string]bool)
	for _, v := range votes {
		voters[v.UserID] = true
		if v.Value > 0 {
			upvotes[v.SubmissionID] += v.Value
		} else {
			downvotes[v.SubmissionID] += v.Value
		}
	}

	now := s.now().UTC()
	results := make([]result.Result, 0, len(subs))
	for _, sub := range subs {
		penalized := !voters[sub.UserID]
		points := downvotes[sub.ID]
		if !penalized {
			points += upvotes[sub.ID]
		}
		results = append(results, result.Result{
			RoundID:      roundID,
			SubmissionID: sub.ID,
			UserID:       sub.UserID,
			Points:       points,
			IsPenalized:  penalized,
			CreatedAt:    now,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Points != results[j].Points {
			return results[i].Points > results[j].Points
		}
		return results[i].SubmissionID < results[j].SubmissionID
	})
	results[0].IsWinner = true

	return results
}
