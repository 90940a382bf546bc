package listen

import "time"

// Progress tracks verified playback of one submission by one member.
// ProgressSeconds never decreases and IsCompleted never reverts to false.
type Progress struct {
	UserID          string
	SubmissionID    string
	RoundID         string
	ProgressSeconds int
	IsCompleted     bool
	UpdatedAt       time.Time
}

// RequiredSeconds computes the playback threshold that flips IsCompleted:
// the configured percentage of the track, capped by the league time limit.
func RequiredSeconds(durationSeconds, listenPercentage, timeLimitMinutes int) int {
	required := durationSeconds * listenPercentage / 100
	if timeLimitMinutes > 0 {
		limit := timeLimitMinutes * 60
		if limit < required {
			required = limit
		}
	}

	return required
}
