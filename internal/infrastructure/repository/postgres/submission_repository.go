package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/submission"
)

type SubmissionRepository struct {
	db *sqlx.DB
}

func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Create(ctx context.Context, s submission.Submission) error {
	const query = `
INSERT INTO submissions (
    public_id, round_public_id, league_public_id, user_id, song_title,
    artist, duration_seconds, submission_type, collection_id,
    audio_key, art_key, is_troll, created_at
) VALUES (
    :public_id, :round_public_id, :league_public_id, :user_id, :song_title,
    :artist, :duration_seconds, :submission_type, :collection_id,
    :audio_key, :art_key, :is_troll, :created_at
)`
	if _, err := r.db.NamedExecContext(ctx, query, submissionToRow(s)); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	return nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, submissionID string) (submission.Submission, bool, error) {
	var row submissionTableModel
	err := r.db.GetContext(ctx, &row, `SELECT * FROM submissions WHERE public_id = $1`, submissionID)
	if err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("get submission by id: %w", err)
	}

	return submissionFromRow(row), true, nil
}

func (r *SubmissionRepository) ListByRound(ctx context.Context, roundID string) ([]submission.Submission, error) {
	var rows []submissionTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM submissions WHERE round_public_id = $1 ORDER BY public_id`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list submissions by round: %w", err)
	}

	out := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		out = append(out, submissionFromRow(row))
	}

	return out, nil
}

func (r *SubmissionRepository) CountByRound(ctx context.Context, roundID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM submissions WHERE round_public_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("count submissions by round: %w", err)
	}

	return count, nil
}

func (r *SubmissionRepository) CountByRoundAndUser(ctx context.Context, roundID, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM submissions WHERE round_public_id = $1 AND user_id = $2`, roundID, userID)
	if err != nil {
		return 0, fmt.Errorf("count submissions by round and user: %w", err)
	}

	return count, nil
}

func (r *SubmissionRepository) DeleteByRound(ctx context.Context, roundID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM submissions WHERE round_public_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("delete submissions by round: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted submissions: %w", err)
	}

	return int(deleted), nil
}

func (r *SubmissionRepository) SetTrollFlag(ctx context.Context, submissionID string, isTroll bool) (submission.Submission, bool, error) {
	var row submissionTableModel
	err := r.db.GetContext(ctx, &row,
		`UPDATE submissions SET is_troll = $1 WHERE public_id = $2 RETURNING *`, isTroll, submissionID)
	if err != nil {
		if isNotFound(err) {
			return submission.Submission{}, false, nil
		}
		return submission.Submission{}, false, fmt.Errorf("set submission troll flag: %w", err)
	}

	return submissionFromRow(row), true, nil
}

// CommentRepository only implements the cascade used when submissions are
// wiped for a resubmit; comment writes live in a separate service.
type CommentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) DeleteByRound(ctx context.Context, roundID string) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM submission_comments WHERE round_public_id = $1`, roundID)
	if err != nil {
		return 0, fmt.Errorf("delete submission comments by round: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted submission comments: %w", err)
	}

	return int(deleted), nil
}

func submissionToRow(s submission.Submission) submissionTableModel {
	return submissionTableModel{
		PublicID:        s.ID,
		RoundPublicID:   s.RoundID,
		LeaguePublicID:  s.LeagueID,
		UserID:          s.UserID,
		SongTitle:       s.SongTitle,
		Artist:          s.Artist,
		DurationSeconds: s.DurationSeconds,
		SubmissionType:  string(s.Type),
		CollectionID:    s.CollectionID,
		AudioKey:        s.AudioKey,
		ArtKey:          s.ArtKey,
		IsTroll:         s.IsTroll,
		CreatedAt:       s.CreatedAt,
	}
}

func submissionFromRow(row submissionTableModel) submission.Submission {
	return submission.Submission{
		ID:              row.PublicID,
		RoundID:         row.RoundPublicID,
		LeagueID:        row.LeaguePublicID,
		UserID:          row.UserID,
		SongTitle:       row.SongTitle,
		Artist:          row.Artist,
		DurationSeconds: row.DurationSeconds,
		Type:            submission.Type(row.SubmissionType),
		CollectionID:    row.CollectionID,
		AudioKey:        row.AudioKey,
		ArtKey:          row.ArtKey,
		IsTroll:         row.IsTroll,
		CreatedAt:       row.CreatedAt,
	}
}
