package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/league"
)

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

const selectLeagueColumns = `SELECT * FROM leagues WHERE deleted_at IS NULL`

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	var rows []leagueTableModel
	if err := r.db.SelectContext(ctx, &rows, selectLeagueColumns+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("select leagues: %w", err)
	}

	out := make([]league.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, leagueFromRow(row))
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	var row leagueTableModel
	err := r.db.GetContext(ctx, &row, selectLeagueColumns+` AND public_id = $1`, leagueID)
	if err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league by id: %w", err)
	}

	return leagueFromRow(row), true, nil
}

func leagueFromRow(row leagueTableModel) league.League {
	return league.League{
		ID:                      row.PublicID,
		Name:                    row.Name,
		OwnerID:                 row.OwnerUserID,
		MaxUpvotes:              row.MaxUpvotes,
		MaxDownvotes:            row.MaxDownvotes,
		LimitVotesPerSong:       row.LimitVotesPerSong,
		MaxUpvotesPerSong:       row.MaxUpvotesPerSong,
		MaxDownvotesPerSong:     row.MaxDownvotesPerSong,
		EnforceListenPercentage: row.EnforceListenPercentage,
		ListenPercentage:        row.ListenPercentage,
		ListenTimeLimitMinutes:  row.ListenTimeLimitMinutes,
		SubmissionDeadlineHours: row.SubmissionDeadlineHours,
		VotingDeadlineHours:     row.VotingDeadlineHours,
	}
}
