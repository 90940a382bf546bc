package httpapi

import (
	"time"

	"github.com/riskibarqy/song-league/internal/domain/listen"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/presubmission"
	"github.com/riskibarqy/song-league/internal/domain/result"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/standing"
	"github.com/riskibarqy/song-league/internal/usecase"
)

type roundDTO struct {
	ID                  string     `json:"id"`
	LeagueID            string     `json:"leagueId"`
	Name                string     `json:"name"`
	Status              string     `json:"status"`
	OpensAt             time.Time  `json:"opensAt"`
	SubmissionDeadline  time.Time  `json:"submissionDeadline"`
	VotingDeadline      time.Time  `json:"votingDeadline"`
	SubmissionsPerUser  int        `json:"submissionsPerUser"`
	MaxUpvotes          *int       `json:"maxUpvotes,omitempty"`
	MaxDownvotes        *int       `json:"maxDownvotes,omitempty"`
	VotingStartedAt     *time.Time `json:"votingStartedAt,omitempty"`
	FinishedAt          *time.Time `json:"finishedAt,omitempty"`
	LastTransitionCause string     `json:"lastTransitionCause"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func roundToDTO(r round.Round) roundDTO {
	return roundDTO{
		ID:                  r.ID,
		LeagueID:            r.LeagueID,
		Name:                r.Name,
		Status:              string(r.Status),
		OpensAt:             r.OpensAt,
		SubmissionDeadline:  r.SubmissionDeadline,
		VotingDeadline:      r.VotingDeadline,
		SubmissionsPerUser:  r.SubmissionsPerUser,
		MaxUpvotes:          r.MaxUpvotes,
		MaxDownvotes:        r.MaxDownvotes,
		VotingStartedAt:     r.VotingStartedAt,
		FinishedAt:          r.FinishedAt,
		LastTransitionCause: string(r.LastTransitionCause),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type submissionDTO struct {
	ID              string    `json:"id"`
	RoundID         string    `json:"roundId"`
	LeagueID        string    `json:"leagueId"`
	UserID          string    `json:"userId"`
	SongTitle       string    `json:"songTitle"`
	Artist          string    `json:"artist,omitempty"`
	DurationSeconds int       `json:"durationSeconds,omitempty"`
	Type            string    `json:"type"`
	CollectionID    string    `json:"collectionId,omitempty"`
	AudioURL        string    `json:"audioUrl,omitempty"`
	ArtURL          string    `json:"artUrl,omitempty"`
	IsTroll         bool      `json:"isTroll"`
	CreatedAt       time.Time `json:"createdAt"`
}

func submissionViewToDTO(v usecase.SubmissionView) submissionDTO {
	return submissionDTO{
		ID:              v.ID,
		RoundID:         v.RoundID,
		LeagueID:        v.LeagueID,
		UserID:          v.UserID,
		SongTitle:       v.SongTitle,
		Artist:          v.Artist,
		DurationSeconds: v.DurationSeconds,
		Type:            string(v.Type),
		CollectionID:    v.CollectionID,
		AudioURL:        v.AudioURL,
		ArtURL:          v.ArtURL,
		IsTroll:         v.IsTroll,
		CreatedAt:       v.CreatedAt,
	}
}

type presubmissionDTO struct {
	RoundID   string    `json:"roundId"`
	UserID    string    `json:"userId"`
	SongTitle string    `json:"songTitle"`
	Artist    string    `json:"artist,omitempty"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func presubmissionToDTO(i presubmission.Intent) presubmissionDTO {
	return presubmissionDTO{
		RoundID:   i.RoundID,
		UserID:    i.UserID,
		SongTitle: i.SongTitle,
		Artist:    i.Artist,
		Type:      string(i.Type),
		CreatedAt: i.CreatedAt,
	}
}

type voteOutcomeDTO struct {
	UpUsed   int  `json:"upUsed"`
	DownUsed int  `json:"downUsed"`
	MaxUp    int  `json:"maxUp"`
	MaxDown  int  `json:"maxDown"`
	IsFinal  bool `json:"isFinal"`
}

func outcomeToDTO(o usecase.Outcome) voteOutcomeDTO {
	return voteOutcomeDTO{
		UpUsed:   o.UpUsed,
		DownUsed: o.DownUsed,
		MaxUp:    o.MaxUp,
		MaxDown:  o.MaxDown,
		IsFinal:  o.IsFinal,
	}
}

type listenProgressDTO struct {
	SubmissionID    string    `json:"submissionId"`
	RoundID         string    `json:"roundId"`
	ProgressSeconds int       `json:"progressSeconds"`
	IsCompleted     bool      `json:"isCompleted"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func listenProgressToDTO(p listen.Progress) listenProgressDTO {
	return listenProgressDTO{
		SubmissionID:    p.SubmissionID,
		RoundID:         p.RoundID,
		ProgressSeconds: p.ProgressSeconds,
		IsCompleted:     p.IsCompleted,
		UpdatedAt:       p.UpdatedAt,
	}
}

type gateEntryDTO struct {
	SubmissionID    string `json:"submissionId"`
	RequiredSeconds int    `json:"requiredSeconds"`
	ProgressSeconds int    `json:"progressSeconds"`
	IsCompleted     bool   `json:"isCompleted"`
}

type gateStatusDTO struct {
	Enforced             bool           `json:"enforced"`
	CanVote              bool           `json:"canVote"`
	BlockingSubmissionID string         `json:"blockingSubmissionId,omitempty"`
	Entries              []gateEntryDTO `json:"entries"`
}

func gateStatusToDTO(status usecase.GateStatus) gateStatusDTO {
	entries := make([]gateEntryDTO, 0, len(status.Entries))
	for _, e := range status.Entries {
		entries = append(entries, gateEntryDTO{
			SubmissionID:    e.SubmissionID,
			RequiredSeconds: e.RequiredSeconds,
			ProgressSeconds: e.ProgressSeconds,
			IsCompleted:     e.IsCompleted,
		})
	}

	return gateStatusDTO{
		Enforced:             status.Enforced,
		CanVote:              status.CanVote,
		BlockingSubmissionID: status.BlockingSubmissionID,
		Entries:              entries,
	}
}

type resultDTO struct {
	RoundID      string `json:"roundId"`
	SubmissionID string `json:"submissionId"`
	UserID       string `json:"userId"`
	Points       int    `json:"points"`
	IsWinner     bool   `json:"isWinner"`
	IsPenalized  bool   `json:"isPenalized"`
}

func resultToDTO(res result.Result) resultDTO {
	return resultDTO{
		RoundID:      res.RoundID,
		SubmissionID: res.SubmissionID,
		UserID:       res.UserID,
		Points:       res.Points,
		IsWinner:     res.IsWinner,
		IsPenalized:  res.IsPenalized,
	}
}

type standingDTO struct {
	LeagueID    string    `json:"leagueId"`
	UserID      string    `json:"userId"`
	TotalPoints int       `json:"totalPoints"`
	TotalWins   int       `json:"totalWins"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func standingToDTO(st standing.Standing) standingDTO {
	return standingDTO{
		LeagueID:    st.LeagueID,
		UserID:      st.UserID,
		TotalPoints: st.TotalPoints,
		TotalWins:   st.TotalWins,
		UpdatedAt:   st.UpdatedAt,
	}
}

type membershipDTO struct {
	LeagueID    string    `json:"leagueId"`
	UserID      string    `json:"userId"`
	IsOwner     bool      `json:"isOwner"`
	IsManager   bool      `json:"isManager"`
	IsSpectator bool      `json:"isSpectator"`
	IsBanned    bool      `json:"isBanned"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func membershipToDTO(m membership.Membership) membershipDTO {
	return membershipDTO{
		LeagueID:    m.LeagueID,
		UserID:      m.UserID,
		IsOwner:     m.IsOwner,
		IsManager:   m.IsManager,
		IsSpectator: m.IsSpectator,
		IsBanned:    m.IsBanned,
		JoinedAt:    m.JoinedAt,
	}
}
