package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/presubmission"
	"github.com/riskibarqy/song-league/internal/domain/submission"
)

type PresubmissionRepository struct {
	db *sqlx.DB
}

func NewPresubmissionRepository(db *sqlx.DB) *PresubmissionRepository {
	return &PresubmissionRepository{db: db}
}

func (r *PresubmissionRepository) Upsert(ctx context.Context, intent presubmission.Intent) error {
	const query = `
INSERT INTO presubmissions (round_public_id, user_id, song_title, artist, duration_seconds, submission_type, collection_id, audio_key, art_key, created_at, materialized_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)
ON CONFLICT (round_public_id, user_id)
DO UPDATE SET
    song_title = EXCLUDED.song_title,
    artist = EXCLUDED.artist,
    duration_seconds = EXCLUDED.duration_seconds,
    submission_type = EXCLUDED.submission_type,
    collection_id = EXCLUDED.collection_id,
    audio_key = EXCLUDED.audio_key,
    art_key = EXCLUDED.art_key,
    materialized_at = NULL`
	_, err := r.db.ExecContext(ctx, query,
		intent.RoundID, intent.UserID, intent.SongTitle, intent.Artist,
		intent.DurationSeconds, string(intent.Type), intent.CollectionID,
		intent.AudioKey, intent.ArtKey, intent.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert presubmission: %w", err)
	}

	return nil
}

func (r *PresubmissionRepository) ListPendingByRound(ctx context.Context, roundID string) ([]presubmission.Intent, error) {
	var rows []presubmissionTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM presubmissions WHERE round_public_id = $1 AND materialized_at IS NULL ORDER BY user_id`,
		roundID)
	if err != nil {
		return nil, fmt.Errorf("list pending presubmissions: %w", err)
	}

	out := make([]presubmission.Intent, 0, len(rows))
	for _, row := range rows {
		out = append(out, presubmissionFromRow(row))
	}

	return out, nil
}

func (r *PresubmissionRepository) ListRoundIDsWithPending(ctx context.Context) ([]string, error) {
	var roundIDs []string
	err := r.db.SelectContext(ctx, &roundIDs,
		`SELECT DISTINCT round_public_id FROM presubmissions WHERE materialized_at IS NULL ORDER BY round_public_id`)
	if err != nil {
		return nil, fmt.Errorf("list rounds with pending presubmissions: %w", err)
	}

	return roundIDs, nil
}

func (r *PresubmissionRepository) MarkMaterialized(ctx context.Context, roundID, userID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE presubmissions SET materialized_at = $1 WHERE round_public_id = $2 AND user_id = $3`,
		at, roundID, userID)
	if err != nil {
		return fmt.Errorf("mark presubmission materialized: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read mark materialized result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("presubmission round=%s user=%s not found", roundID, userID)
	}

	return nil
}

func presubmissionFromRow(row presubmissionTableModel) presubmission.Intent {
	return presubmission.Intent{
		RoundID:         row.RoundPublicID,
		UserID:          row.UserID,
		SongTitle:       row.SongTitle,
		Artist:          row.Artist,
		DurationSeconds: row.DurationSeconds,
		Type:            submission.Type(row.SubmissionType),
		CollectionID:    row.CollectionID,
		AudioKey:        row.AudioKey,
		ArtKey:          row.ArtKey,
		CreatedAt:       row.CreatedAt,
		MaterializedAt:  row.MaterializedAt,
	}
}
