package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/round"
)

type RoundRepository struct {
	db *sqlx.DB
}

func NewRoundRepository(db *sqlx.DB) *RoundRepository {
	return &RoundRepository{db: db}
}

const selectRounds = `SELECT * FROM rounds`

func (r *RoundRepository) Create(ctx context.Context, item round.Round) error {
	const query = `
INSERT INTO rounds (
    public_id, league_public_id, name, status, opens_at,
    submission_deadline, voting_deadline, submissions_per_user,
    max_upvotes, max_downvotes, voting_started_at, finished_at,
    last_transition_cause, created_at, updated_at
) VALUES (
    :public_id, :league_public_id, :name, :status, :opens_at,
    :submission_deadline, :voting_deadline, :submissions_per_user,
    :max_upvotes, :max_downvotes, :voting_started_at, :finished_at,
    :last_transition_cause, :created_at, :updated_at
)`
	if _, err := r.db.NamedExecContext(ctx, query, roundToRow(item)); err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	return nil
}

func (r *RoundRepository) GetByID(ctx context.Context, roundID string) (round.Round, bool, error) {
	var row roundTableModel
	err := r.db.GetContext(ctx, &row, selectRounds+` WHERE public_id = $1`, roundID)
	if err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("get round by id: %w", err)
	}

	return roundFromRow(row), true, nil
}

func (r *RoundRepository) ListByLeague(ctx context.Context, leagueID string) ([]round.Round, error) {
	var rows []roundTableModel
	err := r.db.SelectContext(ctx, &rows, selectRounds+` WHERE league_public_id = $1 ORDER BY created_at, id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list rounds by league: %w", err)
	}

	return roundsFromRows(rows), nil
}

func (r *RoundRepository) ListDueSubmissionRounds(ctx context.Context, now time.Time) ([]round.Round, error) {
	var rows []roundTableModel
	err := r.db.SelectContext(ctx, &rows,
		selectRounds+` WHERE status = $1 AND submission_deadline <= $2 ORDER BY submission_deadline, id`,
		string(round.StatusSubmissions), now,
	)
	if err != nil {
		return nil, fmt.Errorf("list due submission rounds: %w", err)
	}

	return roundsFromRows(rows), nil
}

func (r *RoundRepository) ListDueVotingRounds(ctx context.Context, now time.Time) ([]round.Round, error) {
	var rows []roundTableModel
	err := r.db.SelectContext(ctx, &rows,
		selectRounds+` WHERE status = $1 AND voting_deadline <= $2 ORDER BY voting_deadline, id`,
		string(round.StatusVoting), now,
	)
	if err != nil {
		return nil, fmt.Errorf("list due voting rounds: %w", err)
	}

	return roundsFromRows(rows), nil
}

// UpdateStatusCAS is the single transition writer. The WHERE clause on the
// expected status makes racing transitions resolve to exactly one row update;
// the loser reads zero rows back and reports ok=false.
func (r *RoundRepository) UpdateStatusCAS(ctx context.Context, roundID string, expected round.Status, update round.StatusUpdate) (round.Round, bool, error) {
	const query = `
UPDATE rounds SET
    status = $1,
    last_transition_cause = $2,
    submission_deadline = COALESCE($3, submission_deadline),
    voting_deadline = COALESCE($4, voting_deadline),
    voting_started_at = CASE WHEN $5 THEN NULL ELSE COALESCE($6, voting_started_at) END,
    finished_at = COALESCE($7, finished_at),
    updated_at = NOW()
WHERE public_id = $8 AND status = $9
RETURNING *`

	var row roundTableModel
	err := r.db.GetContext(ctx, &row, query,
		string(update.Status),
		string(update.Cause),
		update.SubmissionDeadline,
		update.VotingDeadline,
		update.ClearVotingStart,
		update.VotingStartedAt,
		update.FinishedAt,
		roundID,
		string(expected),
	)
	if err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("cas round status: %w", err)
	}

	return roundFromRow(row), true, nil
}

func (r *RoundRepository) UpdateDeadlineCAS(ctx context.Context, roundID string, expected round.Status, deadline time.Time) (round.Round, bool, error) {
	const query = `
UPDATE rounds SET
    submission_deadline = CASE WHEN status = 'submissions' THEN $1 ELSE submission_deadline END,
    voting_deadline = CASE
        WHEN status = 'voting' THEN $1
        WHEN status = 'submissions' AND voting_deadline <= $1
            THEN $1 + (voting_deadline - submission_deadline)
        ELSE voting_deadline
    END,
    updated_at = NOW()
WHERE public_id = $2 AND status = $3
RETURNING *`

	var row roundTableModel
	err := r.db.GetContext(ctx, &row, query, deadline, roundID, string(expected))
	if err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("cas round deadline: %w", err)
	}

	return roundFromRow(row), true, nil
}

func (r *RoundRepository) UpdateConfigCAS(ctx context.Context, roundID string, expected round.Status, update round.ConfigUpdate) (round.Round, bool, error) {
	const query = `
UPDATE rounds SET
    name = COALESCE($1, name),
    submissions_per_user = COALESCE($2, submissions_per_user),
    max_upvotes = COALESCE($3, max_upvotes),
    max_downvotes = COALESCE($4, max_downvotes),
    updated_at = NOW()
WHERE public_id = $5 AND status = $6
RETURNING *`

	var row roundTableModel
	err := r.db.GetContext(ctx, &row, query,
		update.Name,
		update.SubmissionsPerUser,
		update.MaxUpvotes,
		update.MaxDownvotes,
		roundID,
		string(expected),
	)
	if err != nil {
		if isNotFound(err) {
			return round.Round{}, false, nil
		}
		return round.Round{}, false, fmt.Errorf("cas round config: %w", err)
	}

	return roundFromRow(row), true, nil
}

func roundToRow(item round.Round) roundTableModel {
	return roundTableModel{
		PublicID:            item.ID,
		LeaguePublicID:      item.LeagueID,
		Name:                item.Name,
		Status:              string(item.Status),
		OpensAt:             item.OpensAt,
		SubmissionDeadline:  item.SubmissionDeadline,
		VotingDeadline:      item.VotingDeadline,
		SubmissionsPerUser:  item.SubmissionsPerUser,
		MaxUpvotes:          item.MaxUpvotes,
		MaxDownvotes:        item.MaxDownvotes,
		VotingStartedAt:     item.VotingStartedAt,
		FinishedAt:          item.FinishedAt,
		LastTransitionCause: string(item.LastTransitionCause),
		CreatedAt:           item.CreatedAt,
		UpdatedAt:           item.UpdatedAt,
	}
}

func roundFromRow(row roundTableModel) round.Round {
	return round.Round{
		ID:                  row.PublicID,
		LeagueID:            row.LeaguePublicID,
		Name:                row.Name,
		Status:              round.Status(row.Status),
		OpensAt:             row.OpensAt,
		SubmissionDeadline:  row.SubmissionDeadline,
		VotingDeadline:      row.VotingDeadline,
		SubmissionsPerUser:  row.SubmissionsPerUser,
		MaxUpvotes:          row.MaxUpvotes,
		MaxDownvotes:        row.MaxDownvotes,
		VotingStartedAt:     row.VotingStartedAt,
		FinishedAt:          row.FinishedAt,
		LastTransitionCause: round.TransitionCause(row.LastTransitionCause),
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

func roundsFromRows(rows []roundTableModel) []round.Round {
	out := make([]round.Round, 0, len(rows))
	for _, row := range rows {
		out = append(out, roundFromRow(row))
	}

	return out
}
