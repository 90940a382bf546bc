package postgres

import "time"

type submissionTableModel struct {
	ID              int64     `db:"id"`
	PublicID        string    `db:"public_id"`
	RoundPublicID   string    `db:"round_public_id"`
	LeaguePublicID  string    `db:"league_public_id"`
	UserID          string    `db:"user_id"`
	SongTitle       string    `db:"song_title"`
	Artist          string    `db:"artist"`
	DurationSeconds int       `db:"duration_seconds"`
	SubmissionType  string    `db:"submission_type"`
	CollectionID    string    `db:"collection_id"`
	AudioKey        string    `db:"audio_key"`
	ArtKey          string    `db:"art_key"`
	IsTroll         bool      `db:"is_troll"`
	CreatedAt       time.Time `db:"created_at"`
}
