package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/notification"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

type dispatcherMock struct {
	mock.Mock
}

func (m *dispatcherMock) Dispatch(ctx context.Context, event notification.Event) {
	m.Called(ctx, event)
}

func newRoundServiceWithNotifier(env *testEnv, notifier notification.Dispatcher) *RoundService {
	svc := NewRoundService(
		env.rounds, env.leagues, env.memberships, env.submissions, env.comments,
		env.votes, env.counters, env.scoringSvc, notifier, &seqIDGenerator{}, RoundServiceConfig{}, logging.NewNop(),
	)
	svc.now = func() time.Time { return testNow }

	return svc
}

func TestStartVoting_AnnouncesExactlyOnceUsingMock(t *testing.T) {
	t.Parallel()

	env := newTestEnv([]league.League{testLeague()}, []round.Round{submissionsRound()}, testMembers(), nil)

	notifier := &dispatcherMock{}
	notifier.Test(t)
	notifier.
		On("Dispatch", mock.Anything, mock.MatchedBy(func(e notification.Event) bool {
			return e.Type == notification.EventRoundVoting && e.RoundID == "rnd-1" && e.LeagueID == "lg-1"
		})).
		Once()

	svc := newRoundServiceWithNotifier(env, notifier)

	if _, err := svc.StartVoting(context.Background(), owner(), "rnd-1"); err != nil {
		t.Fatalf("start voting: %v", err)
	}
	if _, err := svc.StartVoting(context.Background(), owner(), "rnd-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on repeat, got %v", err)
	}

	notifier.AssertExpectations(t)
}

func TestStartVoting_RejectedTransitionStaysQuietUsingMock(t *testing.T) {
	t.Parallel()

	finished := submissionsRound()
	finished.Status = round.StatusFinished
	env := newTestEnv([]league.League{testLeague()}, []round.Round{finished}, testMembers(), nil)

	notifier := &dispatcherMock{}
	notifier.Test(t)

	svc := newRoundServiceWithNotifier(env, notifier)

	if _, err := svc.StartVoting(context.Background(), owner(), "rnd-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	notifier.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}
