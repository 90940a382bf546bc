package submission

import (
	"fmt"
	"time"
)

// Type distinguishes uploaded audio from link-based entries. Only file
// submissions are subject to the listen gate.
type Type string

const (
	TypeFile    Type = "file"
	TypeYouTube Type = "youtube"
)

// Submission is a single song entered into a round by a member.
type Submission struct {
	ID              string
	RoundID         string
	LeagueID        string
	UserID          string
	SongTitle       string
	Artist          string
	DurationSeconds int
	Type            Type
	// CollectionID groups multi-track entries (albums, EPs).
	CollectionID string
	AudioKey     string
	ArtKey       string
	IsTroll      bool
	CreatedAt    time.Time
}

func (s Submission) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("submission id is required")
	}
	if s.RoundID == "" || s.LeagueID == "" || s.UserID == "" {
		return fmt.Errorf("submission round, league and user ids are required")
	}
	if s.SongTitle == "" {
		return fmt.Errorf("submission song title is required")
	}
	switch s.Type {
	case TypeFile, TypeYouTube:
	default:
		return fmt.Errorf("invalid submission type %q", s.Type)
	}
	if s.Type == TypeFile && s.DurationSeconds <= 0 {
		return fmt.Errorf("file submission duration must be > 0")
	}

	return nil
}
