package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/song-league/internal/config"
	"github.com/riskibarqy/song-league/internal/domain/counter"
	"github.com/riskibarqy/song-league/internal/domain/league"
	"github.com/riskibarqy/song-league/internal/domain/listen"
	"github.com/riskibarqy/song-league/internal/domain/membership"
	"github.com/riskibarqy/song-league/internal/domain/notification"
	"github.com/riskibarqy/song-league/internal/domain/presubmission"
	"github.com/riskibarqy/song-league/internal/domain/result"
	"github.com/riskibarqy/song-league/internal/domain/round"
	"github.com/riskibarqy/song-league/internal/domain/standing"
	"github.com/riskibarqy/song-league/internal/domain/submission"
	"github.com/riskibarqy/song-league/internal/domain/vote"
	"github.com/riskibarqy/song-league/internal/infrastructure/identity"
	"github.com/riskibarqy/song-league/internal/infrastructure/notify"
	"github.com/riskibarqy/song-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/song-league/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/song-league/internal/infrastructure/storage"
	"github.com/riskibarqy/song-league/internal/interfaces/httpapi"
	"github.com/riskibarqy/song-league/internal/platform/cache"
	idgen "github.com/riskibarqy/song-league/internal/platform/id"
	"github.com/riskibarqy/song-league/internal/platform/logging"
	"github.com/riskibarqy/song-league/internal/platform/resilience"
	"github.com/riskibarqy/song-league/internal/usecase"
)

// App is the assembled service: HTTP server, background sweeper, and the
// resources both hold.
type App struct {
	Server  *http.Server
	Sweeper *usecase.SweeperService

	db     *sqlx.DB
	logger *logging.Logger
}

type repositories struct {
	leagues     league.Repository
	rounds      round.Repository
	memberships membership.Repository
	submissions submission.Repository
	comments    submission.CommentRepository
	presubs     presubmission.Repository
	votes       vote.Repository
	listens     listen.Repository
	results     result.Repository
	standings   standing.Repository
	counters    counter.Repository
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, db, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, err
	}

	standingsSvc := usecase.NewStandingsService(repos.standings, logger)
	scoringSvc := usecase.NewScoringService(repos.results, repos.submissions, repos.votes, standingsSvc, logger)

	var notifier notification.Dispatcher = notification.NopDispatcher{}
	if cfg.NotifyWebhookURL != "" {
		notifier = notify.NewWebhookDispatcher(notify.WebhookConfig{
			URL:     cfg.NotifyWebhookURL,
			Timeout: cfg.NotifyTimeout,
			Breaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.NotifyCircuitEnabled,
				FailureThreshold: cfg.NotifyCircuitFailureCount,
				OpenTimeout:      cfg.NotifyCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.NotifyCircuitHalfOpenMax,
			},
		}, logger)
	}

	ids := idgen.NewRandomGenerator()
	roundSvc := usecase.NewRoundService(
		repos.rounds,
		repos.leagues,
		repos.memberships,
		repos.submissions,
		repos.comments,
		repos.votes,
		repos.counters,
		scoringSvc,
		notifier,
		ids,
		usecase.RoundServiceConfig{
			CASRetries:     cfg.RoundCASRetries,
			RollbackWindow: cfg.RoundRollbackWindow,
		},
		logger,
	)

	listenSvc := usecase.NewListenService(repos.listens, repos.submissions, repos.rounds, repos.leagues, repos.memberships, logger)
	voteSvc := usecase.NewVoteService(repos.votes, repos.rounds, repos.leagues, repos.memberships, repos.submissions, listenSvc, repos.counters, logger)

	var media usecase.MediaURLProvider
	if cfg.MediaBaseURL != "" && cfg.MediaSigningSecret != "" {
		var urlCache *cache.Store
		if cfg.MediaCacheEnabled {
			urlCache = cache.NewStore(cfg.MediaCacheTTL)
		}
		provider, err := storage.NewSignedURLProvider(storage.SignedURLConfig{
			BaseURL: cfg.MediaBaseURL,
			Secret:  cfg.MediaSigningSecret,
			TTL:     cfg.MediaURLTTL,
		}, urlCache)
		if err != nil {
			return nil, fmt.Errorf("build media url provider: %w", err)
		}
		media = provider
	} else {
		logger.Info("media url provider disabled", "reason", "MEDIA_BASE_URL or MEDIA_SIGNING_SECRET empty")
	}

	submissionSvc := usecase.NewSubmissionService(
		repos.submissions,
		repos.presubs,
		repos.rounds,
		repos.leagues,
		repos.memberships,
		repos.counters,
		media,
		ids,
		logger,
	)
	membershipSvc := usecase.NewMembershipService(repos.memberships, repos.leagues, repos.counters, logger)

	sweeper, err := usecase.NewSweeperService(repos.rounds, roundSvc, submissionSvc, usecase.SweeperConfig{
		Interval: cfg.SweepInterval,
		Workers:  cfg.SweepWorkers,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("build sweeper: %w", err)
	}

	verifier := identity.NewClient(
		&http.Client{Timeout: cfg.AuthTimeout},
		identity.ClientConfig{
			BaseURL:        cfg.AuthBaseURL,
			IntrospectPath: cfg.AuthIntrospectURL,
			AdminKey:       cfg.AuthAdminKey,
			Breaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.AuthCircuitEnabled,
				FailureThreshold: cfg.AuthCircuitFailureCount,
				OpenTimeout:      cfg.AuthCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.AuthCircuitHalfOpenMaxReq,
			},
		},
		logger,
	)

	handler := httpapi.NewHandler(
		roundSvc,
		submissionSvc,
		voteSvc,
		listenSvc,
		scoringSvc,
		standingsSvc,
		membershipSvc,
		sweeper,
		logger,
	)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &App{
		Server:  server,
		Sweeper: sweeper,
		db:      db,
		logger:  logger,
	}, nil
}

// Close releases the sweeper pool and the database handle. Safe to call after
// the HTTP server has shut down.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.Sweeper != nil {
		a.Sweeper.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("close db: %w", err)
		}
	}

	return nil
}

func buildRepositories(cfg config.Config, logger *logging.Logger) (repositories, *sqlx.DB, error) {
	if cfg.DBURL == "" {
		logger.Info("storage mode", "mode", "memory", "reason", "DB_URL empty")
		return repositories{
			leagues:     memory.NewLeagueRepository(memory.SeedLeagues()),
			rounds:      memory.NewRoundRepository(memory.SeedRounds()),
			memberships: memory.NewMembershipRepository(memory.SeedMemberships()),
			submissions: memory.NewSubmissionRepository(nil),
			comments:    memory.NewCommentRepository(),
			presubs:     memory.NewPresubmissionRepository(),
			votes:       memory.NewVoteRepository(),
			listens:     memory.NewListenRepository(),
			results:     memory.NewResultRepository(),
			standings:   memory.NewStandingRepository(),
			counters:    memory.NewCounterRepository(),
		}, nil, nil
	}

	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithDBName(dbNameFromURL(dsn)),
	)
	if err != nil {
		return repositories{}, nil, fmt.Errorf("open database: %w", err)
	}

	logger.Info("storage mode", "mode", "postgres", "db_name", dbNameFromURL(dsn))

	return repositories{
		leagues:     postgres.NewLeagueRepository(db),
		rounds:      postgres.NewRoundRepository(db),
		memberships: postgres.NewMembershipRepository(db),
		submissions: postgres.NewSubmissionRepository(db),
		comments:    postgres.NewCommentRepository(db),
		presubs:     postgres.NewPresubmissionRepository(db),
		votes:       postgres.NewVoteRepository(db),
		listens:     postgres.NewListenRepository(db),
		results:     postgres.NewResultRepository(db),
		standings:   postgres.NewStandingRepository(db),
		counters:    postgres.NewCounterRepository(db),
	}, db, nil
}
