package membership

import "time"

// TrollBanThreshold is the troll-submission count at which a membership is
// banned from further participation. Historical data is never removed.
const TrollBanThreshold = 2

// Membership ties a user to a league with their participation rights.
type Membership struct {
	LeagueID             string
	UserID               string
	IsOwner              bool
	IsManager            bool
	IsSpectator          bool
	TrollSubmissionCount int
	IsBanned             bool
	JoinedAt             time.Time
}

// CanParticipate reports whether the member may submit or vote at all.
// Spectators and banned members are read-only.
func (m Membership) CanParticipate() bool {
	return !m.IsSpectator && !m.IsBanned
}

// CanManage reports whether the member may run admin round actions.
func (m Membership) CanManage() bool {
	return m.IsOwner || m.IsManager
}
