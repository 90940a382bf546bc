package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/vote"
)

func rejectReason(t *testing.T, err error) VoteRejectReason {
	t.Helper()

	var rejected *VoteRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected VoteRejectedError, got %v", err)
	}

	return rejected.Reason
}

func TestCastVote_SelfVoteForbidden(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)

	_, err := env.voteSvc.CastVote(context.Background(), member("user-a"), "rnd-1", "sub-1", vote.ValueUp)
	if got := rejectReason(t, err); got != ReasonSelfVoteForbidden {
		t.Fatalf("unexpected reason: got=%s want=%s", got, ReasonSelfVoteForbidden)
	}
}

func TestCastVote_RoundNotVoting(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{submissionsRound()}, testMembers(), subs)

	_, err := env.voteSvc.CastVote(context.Background(), member("user-b"), "rnd-1", "sub-1", vote.ValueUp)
	if got := rejectReason(t, err); got != ReasonRoundNotVoting {
		t.Fatalf("unexpected reason: got=%s want=%s", got, ReasonRoundNotVoting)
	}
}

func TestCastVote_QuotaAndDirectionSwitch(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{
		fileSubmission("sub-1", "user-a"),
		fileSubmission("sub-2", "user-a"),
		fileSubmission("sub-3", "user-c"),
	}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()
	voter := member("user-b")

	// League caps: 2 up, 1 down.
	out, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp)
	if err != nil {
		t.Fatalf("first cast: %v", err)
	}
	if out.UpUsed != 1 || out.DownUsed != 0 || out.MaxUp != 2 || out.MaxDown != 1 {
		t.Fatalf("unexpected outcome after first cast: %+v", out)
	}

	// Recasting the same value is a no-op.
	out, err = env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp)
	if err != nil {
		t.Fatalf("duplicate cast: %v", err)
	}
	if out.UpUsed != 1 {
		t.Fatalf("duplicate cast must not spend quota: %+v", out)
	}

	// Switching direction frees the upvote and spends the downvote.
	out, err = env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueDown)
	if err != nil {
		t.Fatalf("direction switch: %v", err)
	}
	if out.UpUsed != 0 || out.DownUsed != 1 {
		t.Fatalf("unexpected outcome after switch: %+v", out)
	}

	// Second downvote exceeds the cap of 1.
	_, err = env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-2", vote.ValueDown)
	if got := rejectReason(t, err); got != ReasonQuotaExceeded {
		t.Fatalf("unexpected reason: got=%s want=%s", got, ReasonQuotaExceeded)
	}
}

func TestCastVote_FinalAllocationLocks(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{
		fileSubmission("sub-1", "user-a"),
		fileSubmission("sub-2", "user-a"),
		fileSubmission("sub-3", "user-c"),
		fileSubmission("sub-4", "user-c"),
	}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()
	voter := member("user-b")

	if _, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp); err != nil {
		t.Fatalf("cast 1: %v", err)
	}
	if _, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-2", vote.ValueUp); err != nil {
		t.Fatalf("cast 2: %v", err)
	}
	out, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-3", vote.ValueDown)
	if err != nil {
		t.Fatalf("cast 3: %v", err)
	}
	if !out.IsFinal {
		t.Fatalf("allocation should be final after 2 up + 1 down: %+v", out)
	}

	if _, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-4", vote.ValueUp); rejectReason(t, err) != ReasonVotesFinal {
		t.Fatalf("expected final lock on cast, got %v", err)
	}
	if _, err := env.voteSvc.RetractVote(ctx, voter, "rnd-1", "sub-1"); rejectReason(t, err) != ReasonVotesFinal {
		t.Fatalf("expected final lock on retract, got %v", err)
	}

	// Finalizing exactly once bumps the finalized-voter counter.
	n, err := env.counters.Value(ctx, counter.KindFinalizedVoters, "lg-1")
	if err != nil {
		t.Fatalf("counter value: %v", err)
	}
	if n != 1 {
		t.Fatalf("unexpected finalized-voter count: got=%d want=1", n)
	}
}

func TestRetractVote_FreesQuota(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()
	voter := member("user-b")

	if _, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp); err != nil {
		t.Fatalf("cast: %v", err)
	}

	out, err := env.voteSvc.RetractVote(ctx, voter, "rnd-1", "sub-1")
	if err != nil {
		t.Fatalf("retract: %v", err)
	}
	if out.UpUsed != 0 {
		t.Fatalf("retract must free the upvote: %+v", out)
	}

	if _, err := env.voteSvc.RetractVote(ctx, voter, "rnd-1", "sub-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing vote, got %v", err)
	}
}

func TestCastVote_LateJoinerNotEligible(t *testing.T) {
	t.Parallel()

	members := testMembers()
	members = append(members, membership.Membership{LeagueID: "lg-1", UserID: "user-late", JoinedAt: testNow})
	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, members, subs)

	// Voting started an hour before user-late joined.
	_, err := env.voteSvc.CastVote(context.Background(), member("user-late"), "rnd-1", "sub-1", vote.ValueUp)
	if got := rejectReason(t, err); got != ReasonNotEligible {
		t.Fatalf("unexpected reason: got=%s want=%s", got, ReasonNotEligible)
	}
}

func TestCastVote_SpectatorAndBannedNotEligible(t *testing.T) {
	t.Parallel()

	members := testMembers()
	members = append(members,
		membership.Membership{LeagueID: "lg-1", UserID: "user-spec", IsSpectator: true, JoinedAt: testNow.Add(-48 * time.Hour)},
		membership.Membership{LeagueID: "lg-1", UserID: "user-ban", IsBanned: true, JoinedAt: testNow.Add(-48 * time.Hour)},
	)
	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, members, subs)
	ctx := context.Background()

	for _, userID := range []string{"user-spec", "user-ban"} {
		_, err := env.voteSvc.CastVote(ctx, member(userID), "rnd-1", "sub-1", vote.ValueUp)
		if got := rejectReason(t, err); got != ReasonNotEligible {
			t.Fatalf("user=%s unexpected reason: got=%s want=%s", userID, got, ReasonNotEligible)
		}
	}
}

func TestCastVote_ListenGateBlocks(t *testing.T) {
	t.Parallel()

	lg := testLeague()
	lg.EnforceListenPercentage = true
	lg.ListenPercentage = 80
	lg.ListenTimeLimitMinutes = 5

	subs := []submission.Submission{
		fileSubmission("sub-1", "user-a"),
		fileSubmission("sub-2", "user-c"),
	}
	env := newTestEnv([]league.League{lg}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()
	voter := member("user-b")

	_, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp)
	var rejected *VoteRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected VoteRejectedError, got %v", err)
	}
	if rejected.Reason != ReasonListenRequirementNotMet {
		t.Fatalf("unexpected reason: got=%s", rejected.Reason)
	}
	if rejected.BlockingSubmissionID != "sub-1" {
		t.Fatalf("unexpected blocking submission: got=%s want=sub-1", rejected.BlockingSubmissionID)
	}

	// 80% of 240s = 192s completes each track.
	for _, subID := range []string{"sub-1", "sub-2"} {
		if _, err := env.listenSvc.RecordProgress(ctx, voter, subID, 192); err != nil {
			t.Fatalf("record progress %s: %v", subID, err)
		}
	}

	if _, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp); err != nil {
		t.Fatalf("cast after completing the gate: %v", err)
	}
}

func TestCastVote_PerSubmissionCapDisablesDirection(t *testing.T) {
	t.Parallel()

	lg := testLeague()
	lg.LimitVotesPerSong = true
	lg.MaxUpvotesPerSong = 1
	lg.MaxDownvotesPerSong = 0

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{lg}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()

	_, err := env.voteSvc.CastVote(ctx, member("user-b"), "rnd-1", "sub-1", vote.ValueDown)
	if got := rejectReason(t, err); got != ReasonSubmissionCapExceeded {
		t.Fatalf("unexpected reason: got=%s want=%s", got, ReasonSubmissionCapExceeded)
	}
	if _, err := env.voteSvc.CastVote(ctx, member("user-b"), "rnd-1", "sub-1", vote.ValueUp); err != nil {
		t.Fatalf("upvote should pass the per-submission cap: %v", err)
	}
}

func TestCastVote_RoundOverridesLeagueCaps(t *testing.T) {
	t.Parallel()

	r := votingRound()
	r.MaxUpvotes = intPtr(1)
	r.MaxDownvotes = intPtr(0)
	subs := []submission.Submission{
		fileSubmission("sub-1", "user-a"),
		fileSubmission("sub-2", "user-c"),
	}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{r}, testMembers(), subs)
	ctx := context.Background()
	voter := member("user-b")

	out, err := env.voteSvc.CastVote(ctx, voter, "rnd-1", "sub-1", vote.ValueUp)
	if err != nil {
		t.Fatalf("cast: %v", err)
	}
	if out.MaxUp != 1 || out.MaxDown != 0 {
		t.Fatalf("round overrides must win: %+v", out)
	}
	if !out.IsFinal {
		t.Fatalf("allocation should be final with caps 1/0: %+v", out)
	}
}

func TestVotingRound_FullScenario(t *testing.T) {
	t.Parallel()

	// Caps of 3 up and 1 down need four distinct targets to finalize, so the
	// submitters (three foreign songs each) can never lock in — only the four
	// non-submitting members can. The submitters cast nothing and eat the
	// penalty for it.
	r := votingRound()
	r.MaxUpvotes = intPtr(3)
	r.MaxDownvotes = intPtr(1)

	subIDs := []string{"sub-1", "sub-2", "sub-3", "sub-4"}
	subs := []submission.Submission{
		fileSubmission("sub-1", "user-owner"),
		fileSubmission("sub-2", "user-a"),
		fileSubmission("sub-3", "user-b"),
		fileSubmission("sub-4", "user-c"),
	}
	voters := []string{"user-v1", "user-v2", "user-v3", "user-v4"}
	members := testMembers()
	for _, id := range voters {
		members = append(members, membership.Membership{
			LeagueID: "lg-1", UserID: id, JoinedAt: testNow.Add(-48 * time.Hour),
		})
	}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{r}, members, subs)
	ctx := context.Background()

	// Voter i downvotes submission i and upvotes the rest, so every
	// submission ends with 3 ups and 1 down.
	for i, voterID := range voters {
		voter := member(voterID)
		var out Outcome
		var err error
		for j, subID := range subIDs {
			value := vote.ValueUp
			if j == i {
				value = vote.ValueDown
			}
			out, err = env.voteSvc.CastVote(ctx, voter, "rnd-1", subID, value)
			if err != nil {
				t.Fatalf("voter %s cast on %s: %v", voterID, subID, err)
			}
		}
		if !out.IsFinal {
			t.Fatalf("voter %s should be final after 3 up + 1 down: %+v", voterID, out)
		}
	}

	count, err := env.votes.CountByRound(ctx, "rnd-1")
	if err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if count != 16 {
		t.Fatalf("unexpected vote count: got=%d want=16", count)
	}

	if _, err := env.roundSvc.EndVoting(ctx, owner(), "rnd-1"); err != nil {
		t.Fatalf("EndVoting error: %v", err)
	}

	results, err := env.scoringSvc.ListResults(ctx, "rnd-1")
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected one result per submission, got %d", len(results))
	}

	votedOwnerPoints := 0
	for _, res := range results {
		if !res.IsPenalized {
			votedOwnerPoints += res.Points
			continue
		}
		// Annulled upvotes leave only the single downvote.
		if res.Points != -1 {
			t.Fatalf("penalized %s: got=%d want=-1", res.SubmissionID, res.Points)
		}
	}
	if votedOwnerPoints != 0 {
		t.Fatalf("points across voting owners must net to zero, got %d", votedOwnerPoints)
	}
}

func TestCastVote_ConcurrentCastsNeverOverspend(t *testing.T) {
	t.Parallel()

	subs := make([]submission.Submission, 0, 8)
	for i := 0; i < 8; i++ {
		subs = append(subs, fileSubmission(fmt.Sprintf("sub-%d", i), "user-a"))
	}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()
	voter := member("user-b")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		subID := fmt.Sprintf("sub-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.voteSvc.CastVote(ctx, voter, "rnd-1", subID, vote.ValueUp)
		}()
	}
	wg.Wait()

	usage, err := env.votes.UsageByUser(ctx, "rnd-1", "user-b")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if usage.Upvotes > 2 {
		t.Fatalf("quota overspent under concurrency: got=%d max=2", usage.Upvotes)
	}
	if usage.Upvotes != 2 {
		t.Fatalf("expected the full quota to be spent, got %d", usage.Upvotes)
	}
}
