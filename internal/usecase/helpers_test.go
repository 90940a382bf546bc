package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/notification"
	"github.com/riskibarqy/song-league/internal/domain/presubmission"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/user"
	"github.com/riskibarqy/song-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// captureDispatcher records dispatched events for assertions.
type captureDispatcher struct {
	mu     sync.Mutex
	events []notification.Event
}

func (d *captureDispatcher) Dispatch(_ context.Context, e notification.Event) {
	d.mu.Lock()
	d.events = append(d.events, e)
	d.mu.Unlock()
}

func (d *captureDispatcher) types() []notification.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]notification.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}

	return out
}

// seqIDGenerator issues deterministic ids in call order.
type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	return fmt.Sprintf("id-%04d", g.n), nil
}

type testEnv struct {
	leagues       *memory.LeagueRepository
	rounds        *memory.RoundRepository
	memberships   *memory.MembershipRepository
	submissions   *memory.SubmissionRepository
	comments      *memory.CommentRepository
	presubs       *memory.PresubmissionRepository
	votes         *memory.VoteRepository
	listens       *memory.ListenRepository
	results       *memory.ResultRepository
	standingsRepo *memory.StandingRepository
	counters      *memory.CounterRepository

	events *captureDispatcher

	standingsSvc  *StandingsService
	scoringSvc    *ScoringService
	roundSvc      *RoundService
	listenSvc     *ListenService
	voteSvc       *VoteService
	submissionSvc *SubmissionService
	membershipSvc *MembershipService
}

func newTestEnv(leagues []league.League, rounds []round.Round, members []membership.Membership, subs []submission.Submission) *testEnv {
	env := &testEnv{
		leagues:       memory.NewLeagueRepository(leagues),
		rounds:        memory.NewRoundRepository(rounds),
		memberships:   memory.NewMembershipRepository(members),
		submissions:   memory.NewSubmissionRepository(subs),
		comments:      memory.NewCommentRepository(),
		presubs:       memory.NewPresubmissionRepository(),
		votes:         memory.NewVoteRepository(),
		listens:       memory.NewListenRepository(),
		results:       memory.NewResultRepository(),
		standingsRepo: memory.NewStandingRepository(),
		counters:      memory.NewCounterRepository(),
		events:        &captureDispatcher{},
	}

	logger := logging.NewNop()
	ids := &seqIDGenerator{}

	env.standingsSvc = NewStandingsService(env.standingsRepo, logger)
	env.scoringSvc = NewScoringService(env.results, env.submissions, env.votes, env.standingsSvc, logger)
	env.roundSvc = NewRoundService(
		env.rounds, env.leagues, env.memberships, env.submissions, env.comments,
		env.votes, env.counters, env.scoringSvc, env.events, ids, RoundServiceConfig{}, logger,
	)
	env.listenSvc = NewListenService(env.listens, env.submissions, env.rounds, env.leagues, env.memberships, logger)
	env.voteSvc = NewVoteService(env.votes, env.rounds, env.leagues, env.memberships, env.submissions, env.listenSvc, env.counters, logger)
	env.submissionSvc = NewSubmissionService(env.submissions, env.presubs, env.rounds, env.leagues, env.memberships, env.counters, nil, ids, logger)
	env.membershipSvc = NewMembershipService(env.memberships, env.leagues, env.counters, logger)

	clock := func() time.Time { return testNow }
	env.scoringSvc.now = clock
	env.roundSvc.now = clock
	env.listenSvc.now = clock
	env.voteSvc.now = clock
	env.submissionSvc.now = clock
	env.membershipSvc.now = clock

	return env
}

func owner() user.Principal {
	return user.Principal{UserID: "user-owner", DisplayName: "Owner"}
}

func member(id string) user.Principal {
	return user.Principal{UserID: id}
}

func intPtr(v int) *int { return &v }

func testLeague() league.League {
	return league.League{
		ID:                      "lg-1",
		Name:                    "Test League",
		OwnerID:                 "user-owner",
		MaxUpvotes:              2,
		MaxDownvotes:            1,
		SubmissionDeadlineHours: 24,
		VotingDeadlineHours:     48,
	}
}

func testMembers() []membership.Membership {
	joined := testNow.Add(-30 * 24 * time.Hour)

	return []membership.Membership{
		{LeagueID: "lg-1", UserID: "user-owner", IsOwner: true, JoinedAt: joined},
		{LeagueID: "lg-1", UserID: "user-a", JoinedAt: joined},
		{LeagueID: "lg-1", UserID: "user-b", JoinedAt: joined},
		{LeagueID: "lg-1", UserID: "user-c", JoinedAt: joined},
	}
}

func submissionsRound() round.Round {
	opens := testNow.Add(-time.Hour)

	return round.Round{
		ID:                  "rnd-1",
		LeagueID:            "lg-1",
		Name:                "Round One",
		Status:              round.StatusSubmissions,
		OpensAt:             opens,
		SubmissionDeadline:  testNow.Add(23 * time.Hour),
		VotingDeadline:      testNow.Add((23 + 48) * time.Hour),
		SubmissionsPerUser:  1,
		LastTransitionCause: round.CauseManual,
		CreatedAt:           opens,
		UpdatedAt:           opens,
	}
}

func votingRound() round.Round {
	r := submissionsRound()
	r.Status = round.StatusVoting
	started := testNow.Add(-time.Hour)
	r.VotingStartedAt = &started
	r.SubmissionDeadline = started
	r.VotingDeadline = testNow.Add(47 * time.Hour)

	return r
}

func queuedIntent(roundID, userID string) presubmission.Intent {
	return presubmission.Intent{
		RoundID:         roundID,
		UserID:          userID,
		SongTitle:       "Queued Track",
		Artist:          "Queued Artist",
		DurationSeconds: 180,
		Type:            submission.TypeFile,
		AudioKey:        "audio/queued.mp3",
		CreatedAt:       testNow.Add(-time.Hour),
	}
}

func fileSubmission(id, userID string) submission.Submission {
	return submission.Submission{
		ID:              id,
		RoundID:         "rnd-1",
		LeagueID:        "lg-1",
		UserID:          userID,
		SongTitle:       "Track " + id,
		Artist:          "Artist " + userID,
		DurationSeconds: 240,
		Type:            submission.TypeFile,
		AudioKey:        "audio/" + id + ".mp3",
		CreatedAt:       testNow.Add(-2 * time.Hour),
	}
}
