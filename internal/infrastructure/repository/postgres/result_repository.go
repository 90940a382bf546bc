package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/result"
)

type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// CreateAll writes the full result set in one transaction. The existence
// check inside the transaction rejects a second write for the same round, so
// results stay immutable even under concurrent calculators.
func (r *ResultRepository) CreateAll(ctx context.Context, roundID string, results []result.Result) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create results: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// The unique index on (round_public_id, submission_public_id) is the real
	// guard; this check just gives racing calculators a clean error.
	var exists bool
	err = tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM round_results WHERE round_public_id = $1)`, roundID)
	if err != nil {
		return fmt.Errorf("check existing results: %w", err)
	}
	if exists {
		return fmt.Errorf("results for round %s already exist", roundID)
	}

	const query = `
INSERT INTO round_results (round_public_id, submission_public_id, user_id, points, is_winner, is_penalized, created_at)
VALUES (:round_public_id, :submission_public_id, :user_id, :points, :is_winner, :is_penalized, :created_at)`
	for _, item := range results {
		row := resultTableModel{
			RoundPublicID:      item.RoundID,
			SubmissionPublicID: item.SubmissionID,
			UserID:             item.UserID,
			Points:             item.Points,
			IsWinner:           item.IsWinner,
			IsPenalized:        item.IsPenalized,
			CreatedAt:          item.CreatedAt,
		}
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return fmt.Errorf("insert round result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create results: %w", err)
	}

	return nil
}

func (r *ResultRepository) ListByRound(ctx context.Context, roundID string) ([]result.Result, error) {
	var rows []resultTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM round_results WHERE round_public_id = $1 ORDER BY points DESC, submission_public_id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list results by round: %w", err)
	}

	out := make([]result.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, result.Result{
			RoundID:      row.RoundPublicID,
			SubmissionID: row.SubmissionPublicID,
			UserID:       row.UserID,
			Points:       row.Points,
			IsWinner:     row.IsWinner,
			IsPenalized:  row.IsPenalized,
			CreatedAt:    row.CreatedAt,
		})
	}

	return out, nil
}

func (r *ResultRepository) ExistsByRound(ctx context.Context, roundID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM round_results WHERE round_public_id = $1)`, roundID)
	if err != nil {
		return false, fmt.Errorf("check results by round: %w", err)
	}

	return exists, nil
}
