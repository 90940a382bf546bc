package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
)

func TestJoin_CreatesMembershipAndCountsOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, nil, nil, nil)
	ctx := context.Background()

	got, err := env.membershipSvc.Join(ctx, member("user-new"), "lg-1", false)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if got.LeagueID != "lg-1" || got.UserID != "user-new" || got.IsSpectator {
		t.Fatalf("unexpected membership: %+v", got)
	}
	if !got.JoinedAt.Equal(testNow) {
		t.Fatalf("unexpected joinedAt: got=%v want=%v", got.JoinedAt, testNow)
	}

	// Rejoining returns the existing row without another count.
	again, err := env.membershipSvc.Join(ctx, member("user-new"), "lg-1", true)
	if err != nil {
		t.Fatalf("second Join error: %v", err)
	}
	if again.IsSpectator {
		t.Fatalf("rejoin must keep the original membership: %+v", again)
	}

	n, err := env.membershipSvc.MemberCount(ctx, "lg-1")
	if err != nil {
		t.Fatalf("MemberCount error: %v", err)
	}
	if n != 1 {
		t.Fatalf("unexpected member count: got=%d want=1", n)
	}
}

func TestJoin_OwnerAndSpectatorFlags(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, nil, nil, nil)
	ctx := context.Background()

	got, err := env.membershipSvc.Join(ctx, owner(), "lg-1", false)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if !got.IsOwner {
		t.Fatalf("league owner must join as owner: %+v", got)
	}

	spec, err := env.membershipSvc.Join(ctx, member("user-watcher"), "lg-1", true)
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if !spec.IsSpectator || spec.CanParticipate() {
		t.Fatalf("spectator must be read-only: %+v", spec)
	}
}

func TestJoin_UnknownLeague(t *testing.T) {
	t.Parallel()

	env := newTestEnv(nil, nil, nil, nil)

	if _, err := env.membershipSvc.Join(context.Background(), member("user-x"), "missing", false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemberCount_ReadsShardedCounter(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, nil, nil, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := env.counters.Increment(ctx, counter.KindMembers, "lg-1", 1); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	n, err := env.membershipSvc.MemberCount(ctx, "lg-1")
	if err != nil {
		t.Fatalf("MemberCount error: %v", err)
	}
	if n != 5 {
		t.Fatalf("unexpected count: got=%d want=5", n)
	}
}
