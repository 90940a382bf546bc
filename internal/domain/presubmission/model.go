package presubmission

import (
	"fmt"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/submission"
)

// Intent is a queued submission placed before a round opens. The sweeper
// converts pending intents into real submissions when the round's submissions
// phase starts; conversion is idempotent and honors the per-user cap.
type Intent struct {
	RoundID         string
	UserID          string
	SongTitle       string
	Artist          string
	DurationSeconds int
	Type            submission.Type
	CollectionID    string
	AudioKey        string
	ArtKey          string
	CreatedAt       time.Time
	MaterializedAt  *time.Time
}

func (i Intent) Validate() error {
	if i.RoundID == "" || i.UserID == "" {
		return fmt.Errorf("presubmission round and user ids are required")
	}
	if i.SongTitle == "" {
		return fmt.Errorf("presubmission song title is required")
	}
	switch i.Type {
	case submission.TypeFile, submission.TypeYouTube:
	default:
		return fmt.Errorf("invalid presubmission type %q", i.Type)
	}

	return nil
}
