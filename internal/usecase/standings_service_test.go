package usecase

import (
	"context"
	"testing"

	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/result"
	"github.com/riskibarqy/song-league/internal/domain/standing"
)

func TestResultDeltas_FoldsPerUser(t *testing.T) {
	t.Parallel()

	results := []result.Result{
		{SubmissionID: "sub-1", UserID: "user-b", Points: 3, IsWinner: true},
		{SubmissionID: "sub-2", UserID: "user-a", Points: 2},
		{SubmissionID: "sub-3", UserID: "user-b", Points: -1},
	}

	deltas := resultDeltas(results)
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
	// Ordered by user id.
	if deltas[0].UserID != "user-a" || deltas[0].Points != 2 || deltas[0].Wins != 0 {
		t.Fatalf("unexpected first delta: %+v", deltas[0])
	}
	if deltas[1].UserID != "user-b" || deltas[1].Points != 2 || deltas[1].Wins != 1 {
		t.Fatalf("unexpected second delta: %+v", deltas[1])
	}
}

func TestStandingsService_ListByLeague_Ordering(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, nil, testMembers(), nil)
	ctx := context.Background()

	if err := env.standingsSvc.ApplyRound(ctx, "lg-1", "rnd-1", []standing.Delta{
		{UserID: "user-a", Points: 5, Wins: 1},
		{UserID: "user-b", Points: 5},
		{UserID: "user-c", Points: 9, Wins: 1},
	}); err != nil {
		t.Fatalf("ApplyRound error: %v", err)
	}

	standings, err := env.standingsSvc.ListByLeague(ctx, "lg-1")
	if err != nil {
		t.Fatalf("ListByLeague error: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(standings))
	}
	// Points first, then wins, then user id.
	if standings[0].UserID != "user-c" || standings[1].UserID != "user-a" || standings[2].UserID != "user-b" {
		t.Fatalf("unexpected order: %s, %s, %s", standings[0].UserID, standings[1].UserID, standings[2].UserID)
	}
}

func TestStandingsService_ApplyRound_IdempotentPerRound(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, nil, testMembers(), nil)
	ctx := context.Background()

	deltas := []standing.Delta{{UserID: "user-a", Points: 4, Wins: 1}}
	for i := 0; i < 2; i++ {
		if err := env.standingsSvc.ApplyRound(ctx, "lg-1", "rnd-1", deltas); err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
	}

	standings, err := env.standingsSvc.ListByLeague(ctx, "lg-1")
	if err != nil {
		t.Fatalf("ListByLeague error: %v", err)
	}
	if standings[0].TotalPoints != 4 || standings[0].TotalWins != 1 {
		t.Fatalf("round applied twice: %+v", standings[0])
	}

	// A different round accumulates on top.
	if err := env.standingsSvc.ApplyRound(ctx, "lg-1", "rnd-2", deltas); err != nil {
		t.Fatalf("apply rnd-2: %v", err)
	}
	standings, err = env.standingsSvc.ListByLeague(ctx, "lg-1")
	if err != nil {
		t.Fatalf("ListByLeague error: %v", err)
	}
	if standings[0].TotalPoints != 8 || standings[0].TotalWins != 2 {
		t.Fatalf("second round not applied: %+v", standings[0])
	}
}
