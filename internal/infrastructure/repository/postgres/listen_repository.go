package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/listen"
)

type ListenRepository struct {
	db *sqlx.DB
}

func NewListenRepository(db *sqlx.DB) *ListenRepository {
	return &ListenRepository{db: db}
}

// Record upserts with monotonic merge in SQL: GREATEST keeps the higher
// progress and OR latches completion, so a stale heartbeat can never move a
// member backwards.
func (r *ListenRepository) Record(ctx context.Context, p listen.Progress) (listen.Progress, error) {
	const query = `
INSERT INTO listen_progress (user_id, submission_public_id, round_public_id, progress_seconds, is_completed, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id, submission_public_id)
DO UPDATE SET
    progress_seconds = GREATEST(listen_progress.progress_seconds, EXCLUDED.progress_seconds),
    is_completed = listen_progress.is_completed OR EXCLUDED.is_completed,
    updated_at = EXCLUDED.updated_at
RETURNING *`

	var row listenTableModel
	err := r.db.GetContext(ctx, &row, query,
		p.UserID, p.SubmissionID, p.RoundID, p.ProgressSeconds, p.IsCompleted, p.UpdatedAt)
	if err != nil {
		return listen.Progress{}, fmt.Errorf("record listen progress: %w", err)
	}

	return listenFromRow(row), nil
}

func (r *ListenRepository) Get(ctx context.Context, userID, submissionID string) (listen.Progress, bool, error) {
	var row listenTableModel
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM listen_progress WHERE user_id = $1 AND submission_public_id = $2`,
		userID, submissionID)
	if err != nil {
		if isNotFound(err) {
			return listen.Progress{}, false, nil
		}
		return listen.Progress{}, false, fmt.Errorf("get listen progress: %w", err)
	}

	return listenFromRow(row), true, nil
}

func (r *ListenRepository) ListByUserAndRound(ctx context.Context, userID, roundID string) ([]listen.Progress, error) {
	var rows []listenTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM listen_progress WHERE user_id = $1 AND round_public_id = $2 ORDER BY submission_public_id`,
		userID, roundID)
	if err != nil {
		return nil, fmt.Errorf("list listen progress: %w", err)
	}

	out := make([]listen.Progress, 0, len(rows))
	for _, row := range rows {
		out = append(out, listenFromRow(row))
	}

	return out, nil
}

func listenFromRow(row listenTableModel) listen.Progress {
	return listen.Progress{
		UserID:          row.UserID,
		SubmissionID:    row.SubmissionPublicID,
		RoundID:         row.RoundPublicID,
		ProgressSeconds: row.ProgressSeconds,
		IsCompleted:     row.IsCompleted,
		UpdatedAt:       row.UpdatedAt,
	}
}
