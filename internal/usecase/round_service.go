package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/notification"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/user"
	"github.com/riskibarqy/song-league/internal/domain/vote"
	idgen "github.com/riskibarqy/song-league/internal/platform/id"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

const (
	defaultCASRetries     = 3
	defaultRollbackWindow = 24 * time.Hour
)

// RoundService owns the round lifecycle: it validates and applies every
// transition, manual or automatic, through compare-and-set writes so racing
// actors (admin vs sweeper) resolve to exactly one effective transition.
type RoundService struct {
	rounds      round.Repository
	leagues     league.Repository
	memberships membership.Repository
	submissions submission.Repository
	comments    submission.CommentRepository
	votes       vote.Repository
	counters    counter.Repository
	scoring     *ScoringService
	notifier    notification.Dispatcher
	ids         idgen.Generator
	logger      *logging.Logger
	now         func() time.Time

	casRetries     int
	rollbackWindow time.Duration
}

type RoundServiceConfig struct {
	CASRetries     int
	RollbackWindow time.Duration
}

func NewRoundService(
	rounds round.Repository,
	leagues league.Repository,
	memberships membership.Repository,
	submissions submission.Repository,
	comments submission.CommentRepository,
	votes vote.Repository,
	counters counter.Repository,
	scoring *ScoringService,
	notifier notification.Dispatcher,
	ids idgen.Generator,
	cfg RoundServiceConfig,
	logger *logging.Logger,
) *RoundService {
	if notifier == nil {
		notifier = notification.NopDispatcher{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CASRetries <= 0 {
		cfg.CASRetries = defaultCASRetries
	}
	if cfg.RollbackWindow <= 0 {
		cfg.RollbackWindow = defaultRollbackWindow
	}

	return &RoundService{
		rounds:         rounds,
		leagues:        leagues,
		memberships:    memberships,
		submissions:    submissions,
		comments:       comments,
		votes:          votes,
		counters:       counters,
		scoring:        scoring,
		notifier:       notifier,
		ids:            ids,
		logger:         logger,
		now:            time.Now,
		casRetries:     cfg.CASRetries,
		rollbackWindow: cfg.RollbackWindow,
	}
}

type ScheduleRoundInput struct {
	Name               string
	OpensAt            *time.Time
	SubmissionsPerUser int
	MaxUpvotes         *int
	MaxDownvotes       *int
}

func (s *RoundService) ScheduleRound(ctx context.Context, actor user.Principal, leagueID string, input ScheduleRoundInput) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.ScheduleRound")
	defer span.End()

	lg, err := s.loadLeague(ctx, leagueID)
	if err != nil {
		return round.Round{}, err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return round.Round{}, err
	}

	if input.SubmissionsPerUser <= 0 {
		input.SubmissionsPerUser = 1
	}
	if strings.TrimSpace(input.Name) == "" {
		return round.Round{}, fmt.Errorf("%w: round name is required", ErrInvalidInput)
	}

	now := s.now().UTC()
	opensAt := now
	if input.OpensAt != nil {
		if input.OpensAt.Before(now) {
			return round.Round{}, fmt.Errorf("%w: round open time cannot be in the past", ErrInvalidInput)
		}
		opensAt = input.OpensAt.UTC()
	}

	roundID, err := s.ids.NewID()
	if err != nil {
		return round.Round{}, fmt.Errorf("generate round id: %w", err)
	}

	submissionDeadline := opensAt.Add(time.Duration(lg.SubmissionDeadlineHours) * time.Hour)
	r := round.Round{
		ID:                  roundID,
		LeagueID:            leagueID,
		Name:                strings.TrimSpace(input.Name),
		Status:              round.StatusSubmissions,
		OpensAt:             opensAt,
		SubmissionDeadline:  submissionDeadline,
		VotingDeadline:      submissionDeadline.Add(time.Duration(lg.VotingDeadlineHours) * time.Hour),
		SubmissionsPerUser:  input.SubmissionsPerUser,
		MaxUpvotes:          input.MaxUpvotes,
		MaxDownvotes:        input.MaxDownvotes,
		LastTransitionCause: round.CauseManual,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := r.Validate(); err != nil {
		return round.Round{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.rounds.Create(ctx, r); err != nil {
		return round.Round{}, fmt.Errorf("create round: %w", err)
	}

	if !opensAt.After(now) {
		s.notifier.Dispatch(ctx, notification.Event{
			Type:     notification.EventRoundSubmission,
			LeagueID: leagueID,
			RoundID:  roundID,
			Message:  fmt.Sprintf("Round %q is open for submissions", r.Name),
			Link:     "/rounds/" + roundID,
		})
	}

	return r, nil
}

func (s *RoundService) GetRound(ctx context.Context, roundID string) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.GetRound")
	defer span.End()

	return s.loadRound(ctx, roundID)
}

// StartVoting moves a round from submissions to voting on behalf of a league
// owner, manager or platform admin.
func (s *RoundService) StartVoting(ctx context.Context, actor user.Principal, roundID string) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.StartVoting")
	defer span.End()

	r, err := s.loadRound(ctx, roundID)
	if err != nil {
		return round.Round{}, err
	}
	lg, err := s.loadLeague(ctx, r.LeagueID)
	if err != nil {
		return round.Round{}, err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return round.Round{}, err
	}

	updated, transitioned, err := s.startVoting(ctx, r, round.CauseManual)
	if err != nil {
		return round.Round{}, err
	}
	if !transitioned {
		return round.Round{}, fmt.Errorf("%w: cannot start voting from status %q", ErrInvalidTransition, updated.Status)
	}

	return updated, nil
}

// EndVoting finishes a round and synchronously runs scoring and standings.
// A round with no submissions or no votes is never finished: that would score
// nothing, so the call is rejected instead.
func (s *RoundService) EndVoting(ctx context.Context, actor user.Principal, roundID string) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.EndVoting")
	defer span.End()

	r, err := s.loadRound(ctx, roundID)
	if err != nil {
		return round.Round{}, err
	}
	lg, err := s.loadLeague(ctx, r.LeagueID)
	if err != nil {
		return round.Round{}, err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return round.Round{}, err
	}

	updated, transitioned, err := s.finish(ctx, r, round.CauseManual)
	if err != nil {
		return round.Round{}, err
	}
	if !transitioned {
		return round.Round{}, fmt.Errorf("%w: cannot end voting from status %q", ErrInvalidTransition, updated.Status)
	}

	return updated, nil
}

// RollbackToSubmissions is the single allowed backward transition. It reopens
// the submissions phase with fresh deadlines; existing submissions and votes
// are kept (votes stay inert until voting reopens).
func (s *RoundService) RollbackToSubmissions(ctx context.Context, actor user.Principal, roundID string) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.RollbackToSubmissions")
	defer span.End()

	r, err := s.loadRound(ctx, roundID)
	if err != nil {
		return round.Round{}, err
	}
	lg, err := s.loadLeague(ctx, r.LeagueID)
	if err != nil {
		return round.Round{}, err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return round.Round{}, err
	}
	if r.Status != round.StatusVoting {
		return round.Round{}, fmt.Errorf("%w: cannot roll back from status %q", ErrInvalidTransition, r.Status)
	}

	now := s.now().UTC()
	submissionDeadline := now.Add(s.rollbackWindow)
	votingDeadline := submissionDeadline.Add(time.Duration(lg.VotingDeadlineHours) * time.Hour)

	updated, transitioned, err := s.transition(ctx, roundID, round.StatusVoting, round.StatusUpdate{
		Status:             round.StatusSubmissions,
		Cause:              round.CauseRollback,
		SubmissionDeadline: &submissionDeadline,
		VotingDeadline:     &votingDeadline,
		ClearVotingStart:   true,
	})
	if err != nil {
		return round.Round{}, err
	}
	if !transitioned {
		return round.Round{}, fmt.Errorf("%w: cannot roll back from status %q", ErrInvalidTransition, updated.Status)
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Type:     notification.EventRoundSubmission,
		LeagueID: updated.LeagueID,
		RoundID:  updated.ID,
		Message:  fmt.Sprintf("Round %q was rolled back to submissions", updated.Name),
		Link:     "/rounds/" + updated.ID,
	})

	return updated, nil
}

// AdjustDeadline shifts the deadline of the current phase by deltaHours.
// The resulting deadline must still be in the future.
func (s *RoundService) AdjustDeadline(ctx context.Context, actor user.Principal, roundID string, deltaHours int) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.AdjustDeadline")
	defer span.End()

	r, err := s.loadRound(ctx, roundID)
	if err != nil {
		return round.Round{}, err
	}
	lg, err := s.loadLeague(ctx, r.LeagueID)
	if err != nil {
		return round.Round{}, err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return round.Round{}, err
	}

	var current time.Time
	switch r.Status {
	case round.StatusSubmissions:
		current = r.SubmissionDeadline
	case round.StatusVoting:
		current = r.VotingDeadline
	default:
		return round.Round{}, fmt.Errorf("%w: cannot adjust deadline of a finished round", ErrInvalidTransition)
	}

	next := current.Add(time.Duration(deltaHours) * time.Hour)
	if !next.After(s.now().UTC()) {
		return round.Round{}, fmt.Errorf("%w: adjusted deadline would be in the past", ErrInvalidInput)
	}

	updated, ok, err := s.rounds.UpdateDeadlineCAS(ctx, roundID, r.Status, next)
	if err != nil {
		return round.Round{}, fmt.Errorf("update round deadline: %w", err)
	}
	if !ok {
		return round.Round{}, fmt.Errorf("%w: round status changed while adjusting deadline", ErrConcurrencyConflict)
	}

	return updated, nil
}

type UpdateRoundConfigInput struct {
	Name               *string
	SubmissionsPerUser *int
	MaxUpvotes         *int
	MaxDownvotes       *int
}

// UpdateRoundConfig edits round settings while the round is not finished.
// Changing submissionsPerUser during the submissions phase wipes existing
// submissions (and their comments) and asks members to resubmit; during
// voting the field is immutable.
func (s *RoundService) UpdateRoundConfig(ctx context.Context, actor user.Principal, roundID string, input UpdateRoundConfigInput) (round.Round, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.UpdateRoundConfig")
	defer span.End()

	r, err := s.loadRound(ctx, roundID)
	if err != nil {
		return round.Round{}, err
	}
	lg, err := s.loadLeague(ctx, r.LeagueID)
	if err != nil {
		return round.Round{}, err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return round.Round{}, err
	}
	if r.Status == round.StatusFinished {
		return round.Round{}, fmt.Errorf("%w: finished rounds are immutable", ErrInvalidTransition)
	}

	capChanged := input.SubmissionsPerUser != nil && *input.SubmissionsPerUser != r.SubmissionsPerUser
	if capChanged {
		if *input.SubmissionsPerUser <= 0 {
			return round.Round{}, fmt.Errorf("%w: submissions per user must be > 0", ErrInvalidInput)
		}
		if r.Status == round.StatusVoting {
			return round.Round{}, fmt.Errorf("%w: submissions per user is immutable once voting started", ErrPreconditionFailed)
		}
	}

	updated, ok, err := s.rounds.UpdateConfigCAS(ctx, roundID, r.Status, round.ConfigUpdate{
		Name:               input.Name,
		SubmissionsPerUser: input.SubmissionsPerUser,
		MaxUpvotes:         input.MaxUpvotes,
		MaxDownvotes:       input.MaxDownvotes,
	})
	if err != nil {
		return round.Round{}, fmt.Errorf("update round config: %w", err)
	}
	if !ok {
		return round.Round{}, fmt.Errorf("%w: round status changed while updating config", ErrConcurrencyConflict)
	}

	if capChanged && r.Status == round.StatusSubmissions {
		deleted, err := s.submissions.DeleteByRound(ctx, roundID)
		if err != nil {
			return round.Round{}, fmt.Errorf("delete submissions for resubmit: %w", err)
		}
		if deleted > 0 {
			if _, err := s.comments.DeleteByRound(ctx, roundID); err != nil {
				return round.Round{}, fmt.Errorf("delete submission comments for resubmit: %w", err)
			}
			// The wiped rows were counted on creation; give the spend back so
			// the league total does not drift upward across cap changes.
			if err := s.counters.Increment(ctx, counter.KindSubmissions, updated.LeagueID, -int64(deleted)); err != nil {
				s.logger.WarnContext(ctx, "submission counter decrement failed",
					"league_id", updated.LeagueID,
					"round_id", roundID,
					"error", err,
				)
			}
			s.notifier.Dispatch(ctx, notification.Event{
				Type:     notification.EventRoundResubmit,
				LeagueID: updated.LeagueID,
				RoundID:  updated.ID,
				Message:  fmt.Sprintf("Round %q changed its submission count, please resubmit your songs", updated.Name),
				Link:     "/rounds/" + updated.ID,
			})
			s.logger.InfoContext(ctx, "round submissions wiped after config change",
				"round_id", roundID,
				"deleted", deleted,
			)
		}
	}

	return updated, nil
}

// Rescore re-runs the results calculator for a finished round. The calculator
// is idempotent, so this is the recovery path after a partial scoring failure.
func (s *RoundService) Rescore(ctx context.Context, actor user.Principal, roundID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RoundService.Rescore")
	defer span.End()

	r, err := s.loadRound(ctx, roundID)
	if err != nil {
		return err
	}
	lg, err := s.loadLeague(ctx, r.LeagueID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, actor, lg); err != nil {
		return err
	}
	if r.Status != round.StatusFinished {
		return fmt.Errorf("%w: round is not finished", ErrPreconditionFailed)
	}

	return s.scoring.CalculateRound(ctx, r)
}

// startVoting drives submissions -> voting. transitioned=false means another
// actor already moved the round; callers decide whether that is an error
// (manual action) or a no-op (sweeper).
func (s *RoundService) startVoting(ctx context.Context, r round.Round, cause round.TransitionCause) (round.Round, bool, error) {
	if r.Status != round.StatusSubmissions {
		return r, false, nil
	}

	now := s.now().UTC()
	updated, transitioned, err := s.transition(ctx, r.ID, round.StatusSubmissions, round.StatusUpdate{
		Status:          round.StatusVoting,
		Cause:           cause,
		VotingStartedAt: &now,
	})
	if err != nil || !transitioned {
		return updated, transitioned, err
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Type:     notification.EventRoundVoting,
		LeagueID: updated.LeagueID,
		RoundID:  updated.ID,
		Message:  fmt.Sprintf("Voting started for round %q", updated.Name),
		Link:     "/rounds/" + updated.ID,
	})

	return updated, true, nil
}

// finish drives voting -> finished and synchronously runs the results
// calculator. The zero-submissions/zero-votes guard applies to every caller:
// finishing such a round would produce a meaningless result set.
func (s *RoundService) finish(ctx context.Context, r round.Round, cause round.TransitionCause) (round.Round, bool, error) {
	if r.Status != round.StatusVoting {
		return r, false, nil
	}

	submissionCount, err := s.submissions.CountByRound(ctx, r.ID)
	if err != nil {
		return r, false, fmt.Errorf("count submissions for round finish: %w", err)
	}
	if submissionCount == 0 {
		return r, false, fmt.Errorf("%w: round has no submissions to score", ErrPreconditionFailed)
	}
	voteCount, err := s.votes.CountByRound(ctx, r.ID)
	if err != nil {
		return r, false, fmt.Errorf("count votes for round finish: %w", err)
	}
	if voteCount == 0 {
		return r, false, fmt.Errorf("%w: round has no votes to score", ErrPreconditionFailed)
	}

	now := s.now().UTC()
	updated, transitioned, err := s.transition(ctx, r.ID, round.StatusVoting, round.StatusUpdate{
		Status:     round.StatusFinished,
		Cause:      cause,
		FinishedAt: &now,
	})
	if err != nil || !transitioned {
		return updated, transitioned, err
	}

	// The transition into finished is the single enqueue point for scoring.
	if err := s.scoring.CalculateRound(ctx, updated); err != nil {
		s.logger.ErrorContext(ctx, "round scoring failed, re-run via rescore",
			"round_id", updated.ID,
			"error", err,
		)
		return updated, true, fmt.Errorf("calculate round results: %w", err)
	}

	s.notifier.Dispatch(ctx, notification.Event{
		Type:     notification.EventRoundFinished,
		LeagueID: updated.LeagueID,
		RoundID:  updated.ID,
		Message:  fmt.Sprintf("Round %q finished, results are in", updated.Name),
		Link:     "/rounds/" + updated.ID + "/results",
	})

	return updated, true, nil
}

// transition applies one CAS status write with bounded retries. A failed CAS
// re-reads the round: if the status moved on, the transition resolves as a
// no-op instead of an error.
func (s *RoundService) transition(ctx context.Context, roundID string, expected round.Status, update round.StatusUpdate) (round.Round, bool, error) {
	if !round.CanTransition(expected, update.Status) {
		return round.Round{}, false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, update.Status)
	}

	for attempt := 0; attempt < s.casRetries; attempt++ {
		updated, ok, err := s.rounds.UpdateStatusCAS(ctx, roundID, expected, update)
		if err != nil {
			return round.Round{}, false, fmt.Errorf("cas round status: %w", err)
		}
		if ok {
			return updated, true, nil
		}

		current, exists, err := s.rounds.GetByID(ctx, roundID)
		if err != nil {
			return round.Round{}, false, fmt.Errorf("reload round after cas miss: %w", err)
		}
		if !exists {
			return round.Round{}, false, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
		}
		if current.Status != expected {
			// Someone else won the race; their transition stands.
			return current, false, nil
		}
	}

	return round.Round{}, false, fmt.Errorf("%w: round=%s", ErrConcurrencyConflict, roundID)
}

func (s *RoundService) loadRound(ctx context.Context, roundID string) (round.Round, error) {
	roundID = strings.TrimSpace(roundID)
	if roundID == "" {
		return round.Round{}, fmt.Errorf("%w: round id is required", ErrInvalidInput)
	}
	r, exists, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return round.Round{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return round.Round{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}
	return r, nil
}

func (s *RoundService) loadLeague(ctx context.Context, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	lg, exists, err := s.leagues.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return lg, nil
}

func (s *RoundService) authorize(ctx context.Context, actor user.Principal, lg league.League) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}
	if actor.IsAdmin || lg.OwnerID == actor.UserID {
		return nil
	}

	m, exists, err := s.memberships.Get(ctx, lg.ID, actor.UserID)
	if err != nil {
		return fmt.Errorf("get membership: %w", err)
	}
	if !exists || !m.CanManage() {
		return fmt.Errorf("%w: user=%s is not a manager of league=%s", ErrForbidden, actor.UserID, lg.ID)
	}

	return nil
}
