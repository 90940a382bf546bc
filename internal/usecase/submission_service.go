package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/presubmission"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/user"
	idgen "github.com/riskibarqy/song-league/internal/platform/id"
	"github.com/riskibarqy/song-league/internal/platform/logging"
)

// MediaURLProvider resolves stored object keys into short-lived playback URLs.
type MediaURLProvider interface {
	SignedURL(ctx context.Context, key string) (string, error)
}

// SubmissionService handles song entry: interactive submits during an open
// round, queued presubmissions before a round opens, and troll moderation.
type SubmissionService struct {
	submissions submission.Repository
	presubs     presubmission.Repository
	rounds      round.Repository
	leagues     league.Repository
	memberships membership.Repository
	counters    counter.Repository
	media       MediaURLProvider
	ids         idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewSubmissionService(
	submissions submission.Repository,
	presubs presubmission.Repository,
	rounds round.Repository,
	leagues league.Repository,
	memberships membership.Repository,
	counters counter.Repository,
	media MediaURLProvider,
	ids idgen.Generator,
	logger *logging.Logger,
) *SubmissionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &SubmissionService{
		submissions: submissions,
		presubs:     presubs,
		rounds:      rounds,
		leagues:     leagues,
		memberships: memberships,
		counters:    counters,
		media:       media,
		ids:         ids,
		logger:      logger,
		now:         time.Now,
	}
}

type SubmitSongInput struct {
	SongTitle       string
	Artist          string
	DurationSeconds int
	Type            submission.Type
	CollectionID    string
	AudioKey        string
	ArtKey          string
}

// Submit enters a song into an open submissions phase.
func (s *SubmissionService) Submit(ctx context.Context, actor user.Principal, roundID string, input SubmitSongInput) (submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Submit")
	defer span.End()

	r, m, err := s.participant(ctx, actor, roundID)
	if err != nil {
		return submission.Submission{}, err
	}
	if !r.IsOpen(s.now().UTC()) {
		return submission.Submission{}, fmt.Errorf("%w: round is not accepting submissions", ErrPreconditionFailed)
	}

	used, err := s.submissions.CountByRoundAndUser(ctx, roundID, actor.UserID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("count user submissions: %w", err)
	}
	if used >= r.SubmissionsPerUser {
		return submission.Submission{}, fmt.Errorf("%w: submission cap %d reached", ErrPreconditionFailed, r.SubmissionsPerUser)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return submission.Submission{}, fmt.Errorf("generate submission id: %w", err)
	}
	sub := submission.Submission{
		ID:              id,
		RoundID:         roundID,
		LeagueID:        m.LeagueID,
		UserID:          actor.UserID,
		SongTitle:       strings.TrimSpace(input.SongTitle),
		Artist:          strings.TrimSpace(input.Artist),
		DurationSeconds: input.DurationSeconds,
		Type:            input.Type,
		CollectionID:    input.CollectionID,
		AudioKey:        input.AudioKey,
		ArtKey:          input.ArtKey,
		CreatedAt:       s.now().UTC(),
	}
	if err := sub.Validate(); err != nil {
		return submission.Submission{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.submissions.Create(ctx, sub); err != nil {
		return submission.Submission{}, fmt.Errorf("create submission: %w", err)
	}
	if err := s.counters.Increment(ctx, counter.KindSubmissions, m.LeagueID, 1); err != nil {
		s.logger.WarnContext(ctx, "submission counter increment failed",
			"league_id", m.LeagueID,
			"error", err,
		)
	}

	return sub, nil
}

// Presubmit queues a song for a round that has not opened yet. One pending
// intent per (round, user); queuing again replaces the earlier intent.
func (s *SubmissionService) Presubmit(ctx context.Context, actor user.Principal, roundID string, input SubmitSongInput) (presubmission.Intent, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.Presubmit")
	defer span.End()

	r, _, err := s.participant(ctx, actor, roundID)
	if err != nil {
		return presubmission.Intent{}, err
	}
	if r.Status != round.StatusSubmissions {
		return presubmission.Intent{}, fmt.Errorf("%w: round is past its submissions phase", ErrPreconditionFailed)
	}
	if r.IsOpen(s.now().UTC()) {
		return presubmission.Intent{}, fmt.Errorf("%w: round is already open, submit directly", ErrPreconditionFailed)
	}

	intent := presubmission.Intent{
		RoundID:         roundID,
		UserID:          actor.UserID,
		SongTitle:       strings.TrimSpace(input.SongTitle),
		Artist:          strings.TrimSpace(input.Artist),
		DurationSeconds: input.DurationSeconds,
		Type:            input.Type,
		CollectionID:    input.CollectionID,
		AudioKey:        input.AudioKey,
		ArtKey:          input.ArtKey,
		CreatedAt:       s.now().UTC(),
	}
	if err := intent.Validate(); err != nil {
		return presubmission.Intent{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.presubs.Upsert(ctx, intent); err != nil {
		return presubmission.Intent{}, fmt.Errorf("queue presubmission: %w", err)
	}

	return intent, nil
}

// MaterializePresubmissions converts pending intents of an open round into
// real submissions. Safe to call repeatedly: converted intents are marked and
// never listed again, and per-intent failures only skip that intent.
func (s *SubmissionService) MaterializePresubmissions(ctx context.Context, r round.Round) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.MaterializePresubmissions")
	defer span.End()

	if !r.IsOpen(s.now().UTC()) {
		return 0, nil
	}

	pending, err := s.presubs.ListPendingByRound(ctx, r.ID)
	if err != nil {
		return 0, fmt.Errorf("list pending presubmissions: %w", err)
	}

	materialized := 0
	for _, intent := range pending {
		if err := s.materialize(ctx, r, intent); err != nil {
			s.logger.WarnContext(ctx, "presubmission materialization skipped",
				"round_id", r.ID,
				"user_id", intent.UserID,
				"error", err,
			)
			continue
		}
		materialized++
	}

	return materialized, nil
}

func (s *SubmissionService) materialize(ctx context.Context, r round.Round, intent presubmission.Intent) error {
	used, err := s.submissions.CountByRoundAndUser(ctx, r.ID, intent.UserID)
	if err != nil {
		return fmt.Errorf("count user submissions: %w", err)
	}
	now := s.now().UTC()
	if used >= r.SubmissionsPerUser {
		// Cap already filled interactively; drop the intent instead of retrying
		// it on every sweep.
		return s.presubs.MarkMaterialized(ctx, r.ID, intent.UserID, now)
	}

	id, err := s.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate submission id: %w", err)
	}
	sub := submission.Submission{
		ID:              id,
		RoundID:         r.ID,
		LeagueID:        r.LeagueID,
		UserID:          intent.UserID,
		SongTitle:       intent.SongTitle,
		Artist:          intent.Artist,
		DurationSeconds: intent.DurationSeconds,
		Type:            intent.Type,
		CollectionID:    intent.CollectionID,
		AudioKey:        intent.AudioKey,
		ArtKey:          intent.ArtKey,
		CreatedAt:       now,
	}
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("invalid queued submission: %w", err)
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	if err := s.presubs.MarkMaterialized(ctx, r.ID, intent.UserID, now); err != nil {
		return fmt.Errorf("mark presubmission materialized: %w", err)
	}
	if err := s.counters.Increment(ctx, counter.KindSubmissions, r.LeagueID, 1); err != nil {
		s.logger.WarnContext(ctx, "submission counter increment failed",
			"league_id", r.LeagueID,
			"error", err,
		)
	}

	return nil
}

// FlagTroll marks a submission as a troll entry and bumps the owner's troll
// count; crossing the threshold bans the member from further participation.
// Unflagging clears the submission only, historical counts stay.
func (s *SubmissionService) FlagTroll(ctx context.Context, actor user.Principal, submissionID string, isTroll bool) (submission.Submission, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.FlagTroll")
	defer span.End()

	if actor.UserID == "" {
		return submission.Submission{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}

	sub, exists, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	if !exists {
		return submission.Submission{}, fmt.Errorf("%w: submission=%s", ErrNotFound, submissionID)
	}

	lg, exists, err := s.leagues.GetByID(ctx, sub.LeagueID)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return submission.Submission{}, fmt.Errorf("%w: league=%s", ErrNotFound, sub.LeagueID)
	}
	if !actor.IsAdmin && lg.OwnerID != actor.UserID {
		m, memberExists, err := s.memberships.Get(ctx, lg.ID, actor.UserID)
		if err != nil {
			return submission.Submission{}, fmt.Errorf("get membership: %w", err)
		}
		if !memberExists || !m.CanManage() {
			return submission.Submission{}, fmt.Errorf("%w: user=%s cannot moderate league=%s", ErrForbidden, actor.UserID, lg.ID)
		}
	}

	wasTroll := sub.IsTroll
	updated, ok, err := s.submissions.SetTrollFlag(ctx, submissionID, isTroll)
	if err != nil {
		return submission.Submission{}, fmt.Errorf("set troll flag: %w", err)
	}
	if !ok {
		return submission.Submission{}, fmt.Errorf("%w: submission=%s", ErrNotFound, submissionID)
	}

	if isTroll && !wasTroll {
		m, err := s.memberships.IncrementTrollCount(ctx, sub.LeagueID, sub.UserID)
		if err != nil {
			return submission.Submission{}, fmt.Errorf("increment troll count: %w", err)
		}
		if m.IsBanned {
			s.logger.InfoContext(ctx, "member banned after repeated troll submissions",
				"league_id", sub.LeagueID,
				"user_id", sub.UserID,
				"troll_count", m.TrollSubmissionCount,
			)
		}
	}

	return updated, nil
}

// SubmissionView is a submission with resolved playback URLs.
type SubmissionView struct {
	submission.Submission
	AudioURL string
	ArtURL   string
}

// ListByRound returns a round's submissions with media keys resolved to
// signed URLs. URL resolution failures degrade to an empty URL, never an
// error: a broken media backend must not hide the round contents.
func (s *SubmissionService) ListByRound(ctx context.Context, roundID string) ([]SubmissionView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SubmissionService.ListByRound")
	defer span.End()

	subs, err := s.submissions.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("list round submissions: %w", err)
	}

	views := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		view := SubmissionView{Submission: sub}
		view.AudioURL = s.resolveURL(ctx, sub.AudioKey)
		view.ArtURL = s.resolveURL(ctx, sub.ArtKey)
		views = append(views, view)
	}

	return views, nil
}

func (s *SubmissionService) resolveURL(ctx context.Context, key string) string {
	if key == "" || s.media == nil {
		return ""
	}
	url, err := s.media.SignedURL(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "media url resolution failed", "key", key, "error", err)
		return ""
	}
	return url
}

func (s *SubmissionService) participant(ctx context.Context, actor user.Principal, roundID string) (round.Round, membership.Membership, error) {
	if actor.UserID == "" {
		return round.Round{}, membership.Membership{}, fmt.Errorf("%w: missing caller identity", ErrUnauthenticated)
	}

	r, exists, err := s.rounds.GetByID(ctx, roundID)
	if err != nil {
		return round.Round{}, membership.Membership{}, fmt.Errorf("get round: %w", err)
	}
	if !exists {
		return round.Round{}, membership.Membership{}, fmt.Errorf("%w: round=%s", ErrNotFound, roundID)
	}

	m, memberExists, err := s.memberships.Get(ctx, r.LeagueID, actor.UserID)
	if err != nil {
		return round.Round{}, membership.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	if !memberExists || !m.CanParticipate() {
		return round.Round{}, membership.Membership{}, fmt.Errorf("%w: user=%s cannot participate in league=%s", ErrForbidden, actor.UserID, r.LeagueID)
	}

	return r, m, nil
}
