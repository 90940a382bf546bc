package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/listen"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/user"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

// ListenService records verified playback and evaluates the listen gate: when
// a league enforces a listen percentage, a member may only vote after
// completing every other member's file submission in the round.
type ListenService struct {
	listens     listen.Repository
	submissions submission.Repository
	rounds      round.Repository
	leagues     league.Repository
	memberships membership.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewListenService(
	listens listen.Repository,
	submissions submission.Repository,
	rounds round.Repository,
	leagues league.Repository,
	memberships membership.Repository,
	logger *logging.Logger,
) *ListenService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ListenService{
		listens:     listens,
		submissions: submissions,
		rounds:      rounds,
		leagues:     leagues,
		memberships: memberships,
		logger:      logger,
		now:         time.Now,
	}
}

// RecordProgress stores a playback heartbeat. Progress only moves forward and
// completion latches: a replay from the start never un-completes a track.
func (s *ListenService) RecordProgress(ctx context.Context, actor user.Principal, submissionID string, progressSeconds int) (listen.Progress, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ListenService.RecordProgress")
	defer span.End()

	if actor.UserID == "" {
		return listen.Progress{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}
	if progressSeconds < 0 {
		return listen.Progress{}, fmt.Errorf("%w: progress seconds cannot be negative", ErrInvalidInput)
	}

	sub, exists, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return listen.Progress{}, fmt.Errorf("get submission: %w", err)
	}
	if !exists {
		return listen.Progress{}, fmt.Errorf("%w: submission=%s", ErrNotFound, submissionID)
	}

	m, memberExists, err := s.memberships.Get(ctx, sub.LeagueID, actor.UserID)
	if err != nil {
		return listen.Progress{}, fmt.Errorf("get membership: %w", err)
	}
	if !memberExists || !m.CanParticipate() {
		return listen.Progress{}, fmt.Errorf("%w: user=%s cannot participate in league=%s", ErrForbidden, actor.UserID, sub.LeagueID)
	}

	lg, exists, err := s.leagues.GetByID(ctx, sub.LeagueID)
	if err != nil {
		return listen.Progress{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return listen.Progress{}, fmt.Errorf("%w: league=%s", ErrNotFound, sub.LeagueID)
	}

	p := listen.Progress{
		UserID:          actor.UserID,
		SubmissionID:    sub.ID,
		RoundID:         sub.RoundID,
		ProgressSeconds: progressSeconds,
		IsCompleted:     progressSeconds >= requiredSeconds(lg, sub),
		UpdatedAt:       s.now().UTC(),
	}

	stored, err := s.listens.Record(ctx, p)
	if err != nil {
		return listen.Progress{}, fmt.Errorf("record listen progress: %w", err)
	}

	return stored, nil
}

// GateEntry is the gate state of one submission for one member.
type GateEntry struct {
	SubmissionID    string
	RequiredSeconds int
	ProgressSeconds int
	IsCompleted     bool
}

// GateStatus is a member's overall listen-gate position in a round.
type GateStatus struct {
	Enforced             bool
	CanVote              bool
	BlockingSubmissionID string
	Entries              []GateEntry
}

// Status evaluates the gate for one member across a whole round.
func (s *ListenService) Status(ctx context.Context, actor user.Principal, roundID string) (GateStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ListenService.Status")
	defer span.End()

	if actor.UserID == "" {
		return GateStatus{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}

	r, exists, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return GateStatus{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return GateStatus{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}
	lg, exists, err := s.leagues.GetByID(ctx, r.LeagueID)
	if err != nil {
		return GateStatus{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return GateStatus{}, fmt.Errorf("%w: league=%s", ErrNotFound, r.LeagueID)
	}
	subs, err := s.submissions.ListByRound(ctx, roundID)
	if err != nil {
		return GateStatus{}, fmt.Errorf("list round submissions: %w", err)
	}

	return s.evaluate(ctx, lg, roundID, actor.UserID, subs)
}

// Evaluate is the vote-ledger entry point: it reuses already-loaded round data
// so the ledger's critical section does not refetch submissions.
func (s *ListenService) Evaluate(ctx context.Context, lg league.League, roundID, userID string, subs []submission.Submission) (GateStatus, error) {
	return s.evaluate(ctx, lg, roundID, userID, subs)
}

func (s *ListenService) evaluate(ctx context.Context, lg league.League, roundID, userID string, subs []submission.Submission) (GateStatus, error) {
	status := GateStatus{Enforced: lg.EnforceListenPercentage, CanVote: true}
	if !lg.EnforceListenPercentage {
		return status, nil
	}

	progress, err := s.listens.ListByUserAndRound(ctx, userID, roundID)
	if err != nil {
		return GateStatus{}, fmt.Errorf("list listen progress: %w", err)
	}
	completed := make(map[string]listen.Progress, len(progress))
	for _, p := range progress {
		completed[p.SubmissionID] = p
	}

	// Stable submission order makes the blocking track deterministic.
	ordered := make([]submission.Submission, len(subs))
	copy(ordered, subs)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	for _, sub := range ordered {
		// Own tracks and link-based entries never gate the voter.
		if sub.UserID == userID || sub.Type != submission.TypeFile {
			continue
		}

		p := completed[sub.ID]
		entry := GateEntry{
			SubmissionID:    sub.ID,
			RequiredSeconds: requiredSeconds(lg, sub),
			ProgressSeconds: p.ProgressSeconds,
			IsCompleted:     p.IsCompleted,
		}
		status.Entries = append(status.Entries, entry)

		if !entry.IsCompleted && status.CanVote {
			status.CanVote = false
			status.BlockingSubmissionID = sub.ID
		}
	}

	return status, nil
}

func requiredSeconds(lg league.League, sub submission.Submission) int {
	if !lg.EnforceListenPercentage || sub.Type != submission.TypeFile {
		return 0
	}
	return listen.RequiredSeconds(sub.DurationSeconds, lg.ListenPercentage, lg.ListenTimeLimitMinutes)
}
