package memory

import (
	"time"

	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/round"
)

const (
	LeagueIDIndieDiscovery = "indie-discovery-2026"
	LeagueIDNusantaraBeats = "nusantara-beats-2026"

	SeedOwnerID = "user-owner-01"
)

func SeedLeagues() []league.League {
	return []league.League{
		{
			ID:                      LeagueIDIndieDiscovery,
			Name:                    "Indie Discovery League",
			OwnerID:                 SeedOwnerID,
			MaxUpvotes:              3,
			MaxDownvotes:            1,
			LimitVotesPerSong:       true,
			MaxUpvotesPerSong:       1,
			MaxDownvotesPerSong:     1,
			EnforceListenPercentage: true,
			ListenPercentage:        80,
			ListenTimeLimitMinutes:  5,
			SubmissionDeadlineHours: 72,
			VotingDeadlineHours:     96,
		},
		{
			ID:                      LeagueIDNusantaraBeats,
			Name:                    "Nusantara Beats",
			OwnerID:                 SeedOwnerID,
			MaxUpvotes:              5,
			MaxDownvotes:            2,
			SubmissionDeadlineHours: 48,
			VotingDeadlineHours:     72,
		},
	}
}

func SeedMemberships() []membership.Membership {
	joined := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	return []membership.Membership{
		{LeagueID: LeagueIDIndieDiscovery, UserID: SeedOwnerID, IsOwner: true, JoinedAt: joined},
		{LeagueID: LeagueIDIndieDiscovery, UserID: "user-member-01", JoinedAt: joined},
		{LeagueID: LeagueIDIndieDiscovery, UserID: "user-member-02", JoinedAt: joined},
		{LeagueID: LeagueIDIndieDiscovery, UserID: "user-member-03", JoinedAt: joined},
		{LeagueID: LeagueIDNusantaraBeats, UserID: SeedOwnerID, IsOwner: true, JoinedAt: joined},
		{LeagueID: LeagueIDNusantaraBeats, UserID: "user-member-01", JoinedAt: joined},
	}
}

func SeedRounds() []round.Round {
	opens := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	return []round.Round{
		{
			ID:                  "rnd-indie-001",
			LeagueID:            LeagueIDIndieDiscovery,
			Name:                "February Hidden Gems",
			Status:              round.StatusSubmissions,
			OpensAt:             opens,
			SubmissionDeadline:  opens.Add(72 * time.Hour),
			VotingDeadline:      opens.Add((72 + 96) * time.Hour),
			SubmissionsPerUser:  1,
			LastTransitionCause: round.CauseManual,
			CreatedAt:           opens,
			UpdatedAt:           opens,
		},
	}
}
