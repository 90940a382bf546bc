package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/song-league/internal/domain/result"
	"github.com/riskibarqy/song-league/internal/domain/standing"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

// StandingsService keeps cumulative league totals in sync with finished
// rounds. Each round is applied at most once; the applied-marker in the
// repository makes the operation a no-op on retries.
type StandingsService struct {
	standings standing.Repository
	logger    *logging.Logger
}

func NewStandingsService(standings standing.Repository, logger *logging.Logger) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}

	return &StandingsService{
		standings: standings,
		logger:    logger,
	}
}

func (s *StandingsService) ListByLeague(ctx context.Context, leagueID string) ([]standing.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ListByLeague")
	defer span.End()

	standings, err := s.standings.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list league standings: %w", err)
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].TotalPoints != standings[j].TotalPoints {
			return standings[i].TotalPoints > standings[j].TotalPoints
		}
		if standings[i].TotalWins != standings[j].TotalWins {
			return standings[i].TotalWins > standings[j].TotalWins
		}
		return standings[i].UserID < standings[j].UserID
	})

	return standings, nil
}

func (s *StandingsService) ApplyRound(ctx context.Context, leagueID, roundID string, deltas []standing.Delta) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.ApplyRound")
	defer span.End()

	if len(deltas) == 0 {
		return nil
	}

	applied, err := s.standings.ApplyRound(ctx, leagueID, roundID, deltas)
	if err != nil {
		return fmt.Errorf("apply round deltas: %w", err)
	}
	if !applied {
		s.logger.DebugContext(ctx, "round already applied to standings",
			"league_id", leagueID,
			"round_id", roundID,
		)
	}

	return nil
}

// resultDeltas folds per-submission results into per-user standings deltas,
// ordered by user id for deterministic writes.
func resultDeltas(results []result.Result) []standing.Delta {
	byUser := make(map[string]*standing.Delta, len(results))
	for _, r := range results {
		d, ok := byUser[r.UserID]
		if !ok {
			d = &standing.Delta{UserID: r.UserID}
			byUser[r.UserID] = d
		}
		d.Points += r.Points
		if r.IsWinner {
			d.Wins++
		}
	}

	deltas := make([]standing.Delta, 0, len(byUser))
	for _, d := range byUser {
		deltas = append(deltas, *d)
	}
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].UserID < deltas[j].UserID
	})

	return deltas
}
