package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/platform/logging"
	"github.com/riskibarqy/song-league/internal/platform/resilience"
)

const (
	defaultSweepInterval = time.Minute
	defaultSweepWorkers  = 4
)

// SweeperService drives overdue rounds through the same transitions an admin
// would trigger. Each sweep scans three backlogs: submission deadlines that
// should open voting, voting deadlines that should finish the round, and
// newly-opened rounds with queued presubmissions. Sweeps are safe to overlap
// with manual actions: every transition is compare-and-set, so the loser of a
// race sees a no-op.
type SweeperService struct {
	rounds      round.Repository
	lifecycle   *RoundService
	submissions *SubmissionService
	pool        *ants.Pool
	interval    time.Duration
	flights     resilience.SingleFlight
	logger      *logging.Logger
	now         func() time.Time
}

type SweeperConfig struct {
	Interval time.Duration
	Workers  int
}

func NewSweeperService(
	rounds round.Repository,
	lifecycle *RoundService,
	submissions *SubmissionService,
	cfg SweeperConfig,
	logger *logging.Logger,
) (*SweeperService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSweepInterval
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultSweepWorkers
	}

	pool, err := ants.NewPool(cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("create sweep worker pool: %w", err)
	}

	return &SweeperService{
		rounds:      rounds,
		lifecycle:   lifecycle,
		submissions: submissions,
		pool:        pool,
		interval:    cfg.Interval,
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (s *SweeperService) Close() {
	s.pool.Release()
}

// SweepReport summarizes one sweep pass.
type SweepReport struct {
	VotingStarted int `json:"voting_started"`
	Finished      int `json:"finished"`
	Materialized  int `json:"materialized"`
	Skipped       int `json:"skipped"`
}

// RunOnce executes one full sweep. Per-round failures are logged and counted
// as skipped; they never abort the rest of the pass. Concurrent callers join
// the in-flight sweep instead of starting a second one.
func (s *SweeperService) RunOnce(ctx context.Context) (SweepReport, error) {
	v, err, shared := s.flights.Do("sweep", func() (any, error) {
		return s.runOnce(ctx)
	})
	if shared {
		s.logger.DebugContext(ctx, "joined in-flight sweep")
	}
	report, _ := v.(SweepReport)

	return report, err
}

func (s *SweeperService) runOnce(ctx context.Context) (SweepReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SweeperService.RunOnce")
	defer span.End()

	now := s.now().UTC()

	var started, finished, materialized, skipped atomic.Int32
	var phases conc.WaitGroup
	var phaseErrs [3]error

	phases.Go(func() {
		phaseErrs[0] = s.sweepSubmissionDeadlines(ctx, now, &started, &skipped)
	})
	phases.Go(func() {
		phaseErrs[1] = s.sweepVotingDeadlines(ctx, now, &finished, &skipped)
	})
	phases.Go(func() {
		phaseErrs[2] = s.sweepPresubmissions(ctx, &materialized, &skipped)
	})
	phases.Wait()

	report := SweepReport{
		VotingStarted: int(started.Load()),
		Finished:      int(finished.Load()),
		Materialized:  int(materialized.Load()),
		Skipped:       int(skipped.Load()),
	}

	for _, err := range phaseErrs {
		if err != nil {
			return report, err
		}
	}

	s.logger.InfoContext(ctx, "sweep completed",
		"voting_started", report.VotingStarted,
		"finished", report.Finished,
		"materialized", report.Materialized,
		"skipped", report.Skipped,
	)

	return report, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *SweeperService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("round sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("round sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.ErrorContext(ctx, "sweep pass failed", "error", err)
			}
		}
	}
}

func (s *SweeperService) sweepSubmissionDeadlines(ctx context.Context, now time.Time, started, skipped *atomic.Int32) error {
	due, err := s.rounds.ListDueSubmissionRounds(ctx, now)
	if err != nil {
		return fmt.Errorf("list due submission rounds: %w", err)
	}

	return s.each(due, func(r round.Round) {
		_, transitioned, err := s.lifecycle.startVoting(ctx, r, round.CauseAuto)
		switch {
		case err != nil:
			skipped.Add(1)
			s.logger.WarnContext(ctx, "auto start voting failed",
				"round_id", r.ID,
				"error", err,
			)
		case transitioned:
			started.Add(1)
		}
	})
}

func (s *SweeperService) sweepVotingDeadlines(ctx context.Context, now time.Time, finished, skipped *atomic.Int32) error {
	due, err := s.rounds.ListDueVotingRounds(ctx, now)
	if err != nil {
		return fmt.Errorf("list due voting rounds: %w", err)
	}

	return s.each(due, func(r round.Round) {
		_, transitioned, err := s.lifecycle.finish(ctx, r, round.CauseAuto)
		switch {
		case err != nil:
			skipped.Add(1)
			// Rounds with nothing to score stay in voting until an admin or a
			// late vote resolves them.
			s.logger.WarnContext(ctx, "auto finish skipped",
				"round_id", r.ID,
				"error", err,
			)
		case transitioned:
			finished.Add(1)
		}
	})
}

func (s *SweeperService) sweepPresubmissions(ctx context.Context, materialized, skipped *atomic.Int32) error {
	roundIDs, err := s.submissions.presubs.ListRoundIDsWithPending(ctx)
	if err != nil {
		return fmt.Errorf("list rounds with pending presubmissions: %w", err)
	}

	rounds := make([]round.Round, 0, len(roundIDs))
	for _, roundID := range roundIDs {
		r, exists, err := s.rounds.GetByID(ctx, roundID)
		if err != nil {
			return fmt.Errorf("get round for presubmissions: %w", err)
		}
		if exists {
			rounds = append(rounds, r)
		}
	}

	return s.each(rounds, func(r round.Round) {
		n, err := s.submissions.MaterializePresubmissions(ctx, r)
		if err != nil {
			skipped.Add(1)
			s.logger.WarnContext(ctx, "presubmission materialization failed",
				"round_id", r.ID,
				"error", err,
			)
			return
		}
		materialized.Add(int32(n))
	})
}

func (s *SweeperService) each(rounds []round.Round, fn func(round.Round)) error {
	var workers sync.WaitGroup
	for _, r := range rounds {
		r := r
		workers.Add(1)
		if err := s.pool.Submit(func() {
			defer workers.Done()
			fn(r)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return fmt.Errorf("submit round to sweep pool: %w", err)
		}
	}
	workers.Wait()

	return nil
}
