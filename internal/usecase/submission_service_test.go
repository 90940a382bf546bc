package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
)

func songInput(title string) SubmitSongInput {
	return SubmitSongInput{
		SongTitle:       title,
		Artist:          "Some Artist",
		DurationSeconds: 210,
		Type:            submission.TypeFile,
		AudioKey:        "audio/x.mp3",
	}
}

func TestSubmit_EnforcesCap(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, []round.Round{submissionsRound()}, testMembers(), nil)
	ctx := context.Background()

	got, err := env.submissionSvc.Submit(ctx, member("user-a"), "rnd-1", songInput("First"))
	if err != nil {
		t.Fatalf("Submit error: %v", err)
	}
	if got.ID == "" || got.LeagueID != "lg-1" || got.RoundID != "rnd-1" {
		t.Fatalf("unexpected submission: %+v", got)
	}

	if _, err := env.submissionSvc.Submit(ctx, member("user-a"), "rnd-1", songInput("Second")); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected cap rejection, got %v", err)
	}

	n, err := env.counters.Value(ctx, counter.KindSubmissions, "lg-1")
	if err != nil {
		t.Fatalf("counter: %v", err)
	}
	if n != 1 {
		t.Fatalf("unexpected submission counter: got=%d want=1", n)
	}
}

func TestSubmit_RejectedOutsideOpenPhase(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), nil)

	if _, err := env.submissionSvc.Submit(context.Background(), member("user-a"), "rnd-1", songInput("Late")); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed during voting, got %v", err)
	}
}

func TestSubmit_NonMemberForbidden(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, []round.Round{submissionsRound()}, testMembers(), nil)

	if _, err := env.submissionSvc.Submit(context.Background(), member("user-outsider"), "rnd-1", songInput("X")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPresubmit_OnlyBeforeOpen(t *testing.T) {
	t.Parallel()

	future := submissionsRound()
	future.OpensAt = testNow.Add(24 * time.Hour)
	future.SubmissionDeadline = future.OpensAt.Add(24 * time.Hour)
	future.VotingDeadline = future.SubmissionDeadline.Add(48 * time.Hour)
	env := newTestEnv([]league.League{testLeague()}, []round.Round{future}, testMembers(), nil)
	ctx := context.Background()

	intent, err := env.submissionSvc.Presubmit(ctx, member("user-a"), "rnd-1", songInput("Queued"))
	if err != nil {
		t.Fatalf("Presubmit error: %v", err)
	}
	if intent.RoundID != "rnd-1" || intent.UserID != "user-a" {
		t.Fatalf("unexpected intent: %+v", intent)
	}

	// Queuing again replaces the earlier intent instead of stacking.
	if _, err := env.submissionSvc.Presubmit(ctx, member("user-a"), "rnd-1", songInput("Replaced")); err != nil {
		t.Fatalf("second Presubmit error: %v", err)
	}
	pending, err := env.presubs.ListPendingByRound(ctx, "rnd-1")
	if err != nil {
		t.Fatalf("ListPendingByRound error: %v", err)
	}
	if len(pending) != 1 || pending[0].SongTitle != "Replaced" {
		t.Fatalf("expected one replaced intent, got %+v", pending)
	}
}

func TestPresubmit_RejectedOnOpenRound(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, []round.Round{submissionsRound()}, testMembers(), nil)

	if _, err := env.submissionSvc.Presubmit(context.Background(), member("user-a"), "rnd-1", songInput("X")); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed for an already open round, got %v", err)
	}
}

func TestMaterializePresubmissions_IdempotentAndCapAware(t *testing.T) {
	t.Parallel()

	future := submissionsRound()
	future.OpensAt = testNow.Add(24 * time.Hour)
	future.SubmissionDeadline = future.OpensAt.Add(24 * time.Hour)
	future.VotingDeadline = future.SubmissionDeadline.Add(48 * time.Hour)
	env := newTestEnv([]league.League{testLeague()}, []round.Round{future}, testMembers(), nil)
	ctx := context.Background()

	if _, err := env.submissionSvc.Presubmit(ctx, member("user-a"), "rnd-1", songInput("Queued A")); err != nil {
		t.Fatalf("presubmit a: %v", err)
	}
	if _, err := env.submissionSvc.Presubmit(ctx, member("user-b"), "rnd-1", songInput("Queued B")); err != nil {
		t.Fatalf("presubmit b: %v", err)
	}

	// Round is now open; user-a filled their cap interactively in the meantime.
	open := future
	open.OpensAt = testNow.Add(-time.Hour)
	interactive := fileSubmission("sub-live", "user-a")
	if err := env.submissions.Create(ctx, interactive); err != nil {
		t.Fatalf("seed interactive submission: %v", err)
	}

	n, err := env.submissionSvc.MaterializePresubmissions(ctx, open)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	// Only user-b's intent becomes a submission; user-a's is dropped at the cap.
	if n != 1 {
		t.Fatalf("unexpected materialized count: got=%d want=1", n)
	}

	count, err := env.submissions.CountByRound(ctx, "rnd-1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected submission count: got=%d want=2", count)
	}

	// A second sweep finds nothing pending.
	n, err = env.submissionSvc.MaterializePresubmissions(ctx, open)
	if err != nil {
		t.Fatalf("second materialize: %v", err)
	}
	if n != 0 {
		t.Fatalf("second pass must be a no-op, got %d", n)
	}
}

func TestMaterializePresubmissions_NoopBeforeOpen(t *testing.T) {
	t.Parallel()

	future := submissionsRound()
	future.OpensAt = testNow.Add(24 * time.Hour)
	env := newTestEnv([]league.League{testLeague()}, []round.Round{future}, testMembers(), nil)

	n, err := env.submissionSvc.MaterializePresubmissions(context.Background(), future)
	if err != nil {
		t.Fatalf("materialize: %v", err)
	}
	if n != 0 {
		t.Fatalf("closed round must not materialize, got %d", n)
	}
}

func TestFlagTroll_BansAtThreshold(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{
		fileSubmission("sub-1", "user-a"),
		fileSubmission("sub-2", "user-a"),
	}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()

	got, err := env.submissionSvc.FlagTroll(ctx, owner(), "sub-1", true)
	if err != nil {
		t.Fatalf("flag 1: %v", err)
	}
	if !got.IsTroll {
		t.Fatalf("submission not flagged: %+v", got)
	}

	m, _, err := env.memberships.Get(ctx, "lg-1", "user-a")
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m.TrollSubmissionCount != 1 || m.IsBanned {
		t.Fatalf("one flag must not ban: %+v", m)
	}

	if _, err := env.submissionSvc.FlagTroll(ctx, owner(), "sub-2", true); err != nil {
		t.Fatalf("flag 2: %v", err)
	}
	m, _, err = env.memberships.Get(ctx, "lg-1", "user-a")
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m.TrollSubmissionCount != 2 || !m.IsBanned {
		t.Fatalf("second flag must ban: %+v", m)
	}
}

func TestFlagTroll_RepeatAndUnflagKeepCount(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)
	ctx := context.Background()

	if _, err := env.submissionSvc.FlagTroll(ctx, owner(), "sub-1", true); err != nil {
		t.Fatalf("flag: %v", err)
	}
	// Re-flagging an already flagged submission must not double-count.
	if _, err := env.submissionSvc.FlagTroll(ctx, owner(), "sub-1", true); err != nil {
		t.Fatalf("re-flag: %v", err)
	}

	got, err := env.submissionSvc.FlagTroll(ctx, owner(), "sub-1", false)
	if err != nil {
		t.Fatalf("unflag: %v", err)
	}
	if got.IsTroll {
		t.Fatalf("unflag must clear the submission: %+v", got)
	}

	m, _, err := env.memberships.Get(ctx, "lg-1", "user-a")
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m.TrollSubmissionCount != 1 {
		t.Fatalf("historical count must survive unflag: %+v", m)
	}
}

func TestFlagTroll_ForbiddenForPlainMember(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)

	if _, err := env.submissionSvc.FlagTroll(context.Background(), member("user-b"), "sub-1", true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListByRound_MissingMediaProviderDegrades(t *testing.T) {
	t.Parallel()

	subs := []submission.Submission{fileSubmission("sub-1", "user-a")}
	env := newTestEnv([]league.League{testLeague()}, []round.Round{votingRound()}, testMembers(), subs)

	views, err := env.submissionSvc.ListByRound(context.Background(), "rnd-1")
	if err != nil {
		t.Fatalf("ListByRound error: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].AudioURL != "" || views[0].ArtURL != "" {
		t.Fatalf("urls must be empty without a media provider: %+v", views[0])
	}
}
