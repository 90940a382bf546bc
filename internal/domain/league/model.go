package league

import "fmt"

// League is a community league running recurring song rounds under shared
// voting rules. Its configuration is read-only input to this service.
type League struct {
	ID                      string
	Name                    string
	OwnerID                 string
	MaxUpvotes              int
	MaxDownvotes            int
	LimitVotesPerSong       bool
	MaxUpvotesPerSong       int
	MaxDownvotesPerSong     int
	EnforceListenPercentage bool
	ListenPercentage        int
	ListenTimeLimitMinutes  int
	SubmissionDeadlineHours int
	VotingDeadlineHours     int
}

func (l League) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("league id is required")
	}
	if l.Name == "" {
		return fmt.Errorf("league name is required")
	}
	if l.OwnerID == "" {
		return fmt.Errorf("league owner id is required")
	}
	if l.MaxUpvotes < 0 || l.MaxDownvotes < 0 {
		return fmt.Errorf("league vote caps cannot be negative")
	}
	if l.EnforceListenPercentage && (l.ListenPercentage <= 0 || l.ListenPercentage > 100) {
		return fmt.Errorf("league listen percentage must be in (0, 100]")
	}
	if l.SubmissionDeadlineHours <= 0 || l.VotingDeadlineHours <= 0 {
		return fmt.Errorf("league deadline hours must be > 0")
	}

	return nil
}
