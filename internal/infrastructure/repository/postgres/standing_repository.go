package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/standing"
)

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) ListByLeague(ctx context.Context, leagueID string) ([]standing.Standing, error) {
	var rows []standingTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM league_standings WHERE league_public_id = $1 ORDER BY total_points DESC, total_wins DESC, user_id`,
		leagueID)
	if err != nil {
		return nil, fmt.Errorf("list standings by league: %w", err)
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, standing.Standing{
			LeagueID:    row.LeaguePublicID,
			UserID:      row.UserID,
			TotalPoints: row.TotalPoints,
			TotalWins:   row.TotalWins,
			UpdatedAt:   row.UpdatedAt,
		})
	}

	return out, nil
}

// ApplyRound inserts the applied-marker first; a conflict means the round was
// already folded into the totals and the transaction turns into a no-op.
func (r *StandingRepository) ApplyRound(ctx context.Context, leagueID, roundID string, deltas []standing.Delta) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx apply round: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO standings_applied_rounds (league_public_id, round_public_id, applied_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (league_public_id, round_public_id) DO NOTHING`,
		leagueID, roundID)
	if err != nil {
		return false, fmt.Errorf("insert applied marker: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read applied marker result: %w", err)
	}
	if inserted == 0 {
		return false, nil
	}

	const query = `
INSERT INTO league_standings (league_public_id, user_id, total_points, total_wins, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (league_public_id, user_id)
DO UPDATE SET
    total_points = league_standings.total_points + EXCLUDED.total_points,
    total_wins = league_standings.total_wins + EXCLUDED.total_wins,
    updated_at = NOW()`
	for _, d := range deltas {
		if _, err := tx.ExecContext(ctx, query, leagueID, d.UserID, d.Points, d.Wins); err != nil {
			return false, fmt.Errorf("apply standing delta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit apply round: %w", err)
	}

	return true, nil
}
