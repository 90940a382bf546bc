package postgres

import "time"

type presubmissionTableModel struct {
	ID              int64      `db:"id"`
	RoundPublicID   string     `db:"round_public_id"`
	UserID          string     `db:"user_id"`
	SongTitle       string     `db:"song_title"`
	Artist          string     `db:"artist"`
	DurationSeconds int        `db:"duration_seconds"`
	SubmissionType  string     `db:"submission_type"`
	CollectionID    string     `db:"collection_id"`
	AudioKey        string     `db:"audio_key"`
	ArtKey          string     `db:"art_key"`
	CreatedAt       time.Time  `db:"created_at"`
	MaterializedAt  *time.Time `db:"materialized_at"`
}
