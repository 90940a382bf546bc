package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/vote"
)

type VoteRepository struct {
	db *sqlx.DB
}

func NewVoteRepository(db *sqlx.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Replace upserts on the (round, submission, user) unique index inside a
// transaction that serializes the member's writes for the round. The advisory
// lock covers the not-yet-inserted case that FOR UPDATE alone would miss, so
// two casts racing from different connections cannot both count a stale spend.
func (r *VoteRepository) Replace(ctx context.Context, v vote.Vote, maxUp, maxDown int) (vote.Usage, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return vote.Usage{}, fmt.Errorf("begin vote replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
		v.RoundID+":"+v.UserID); err != nil {
		return vote.Usage{}, fmt.Errorf("lock vote ledger: %w", err)
	}

	var rows []struct {
		SubmissionPublicID string `db:"submission_public_id"`
		Value              int    `db:"value"`
	}
	err = tx.SelectContext(ctx, &rows,
		`SELECT submission_public_id, value FROM votes
WHERE round_public_id = $1 AND user_id = $2 FOR UPDATE`,
		v.RoundID, v.UserID)
	if err != nil {
		return vote.Usage{}, fmt.Errorf("read vote spend: %w", err)
	}

	var usage vote.Usage
	for _, row := range rows {
		if row.SubmissionPublicID == v.SubmissionID {
			continue
		}
		if row.Value > 0 {
			usage.Upvotes++
		} else {
			usage.Downvotes++
		}
	}
	if v.Value > 0 {
		usage.Upvotes++
	} else {
		usage.Downvotes++
	}
	if usage.Upvotes > maxUp || usage.Downvotes > maxDown {
		return vote.Usage{}, vote.ErrQuotaExceeded
	}

	const query = `
INSERT INTO votes (round_public_id, submission_public_id, user_id, value, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (round_public_id, submission_public_id, user_id)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, query, v.RoundID, v.SubmissionID, v.UserID, v.Value, v.UpdatedAt); err != nil {
		return vote.Usage{}, fmt.Errorf("upsert vote: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return vote.Usage{}, fmt.Errorf("commit vote replace: %w", err)
	}

	return usage, nil
}

func (r *VoteRepository) Delete(ctx context.Context, roundID, submissionID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM votes WHERE round_public_id = $1 AND submission_public_id = $2 AND user_id = $3`,
		roundID, submissionID, userID)
	if err != nil {
		return fmt.Errorf("delete vote: %w", err)
	}

	return nil
}

func (r *VoteRepository) Get(ctx context.Context, roundID, submissionID, userID string) (vote.Vote, bool, error) {
	var row voteTableModel
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM votes WHERE round_public_id = $1 AND submission_public_id = $2 AND user_id = $3`,
		roundID, submissionID, userID)
	if err != nil {
		if isNotFound(err) {
			return vote.Vote{}, false, nil
		}
		return vote.Vote{}, false, fmt.Errorf("get vote: %w", err)
	}

	return voteFromRow(row), true, nil
}

func (r *VoteRepository) UsageByUser(ctx context.Context, roundID, userID string) (vote.Usage, error) {
	const query = `
SELECT
    COUNT(*) FILTER (WHERE value > 0) AS upvotes,
    COUNT(*) FILTER (WHERE value < 0) AS downvotes
FROM votes
WHERE round_public_id = $1 AND user_id = $2`

	var row struct {
		Upvotes   int `db:"upvotes"`
		Downvotes int `db:"downvotes"`
	}
	if err := r.db.GetContext(ctx, &row, query, roundID, userID); err != nil {
		return vote.Usage{}, fmt.Errorf("read vote usage: %w", err)
	}

	return vote.Usage{Upvotes: row.Upvotes, Downvotes: row.Downvotes}, nil
}

func (r *VoteRepository) ListByRound(ctx context.Context, roundID string) ([]vote.Vote, error) {
	var rows []voteTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM votes WHERE round_public_id = $1 ORDER BY submission_public_id, user_id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list votes by round: %w", err)
	}

	out := make([]vote.Vote, 0, len(rows))
	for _, row := range rows {
		out = append(out, voteFromRow(row))
	}

	return out, nil
}

func (r *VoteRepository) CountByRound(ctx context.Context, roundID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM votes WHERE round_public_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("count votes by round: %w", err)
	}

	return count, nil
}

func voteFromRow(row voteTableModel) vote.Vote {
	return vote.Vote{
		RoundID:      row.RoundPublicID,
		SubmissionID: row.SubmissionPublicID,
		UserID:       row.UserID,
		Value:        row.Value,
		UpdatedAt:    row.UpdatedAt,
	}
}
