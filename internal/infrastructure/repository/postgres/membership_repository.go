package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/song-league/internal/domain/membership"
)

type MembershipRepository struct {
	db *sqlx.DB
}

func NewMembershipRepository(db *sqlx.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m membership.Membership) error {
	const query = `
INSERT INTO league_members (league_public_id, user_id, is_owner, is_manager, is_spectator, troll_submission_count, is_banned, joined_at)
VALUES (:league_public_id, :user_id, :is_owner, :is_manager, :is_spectator, :troll_submission_count, :is_banned, :joined_at)`
	row := membershipTableModel{
		LeaguePublicID:       m.LeagueID,
		UserID:               m.UserID,
		IsOwner:              m.IsOwner,
		IsManager:            m.IsManager,
		IsSpectator:          m.IsSpectator,
		TrollSubmissionCount: m.TrollSubmissionCount,
		IsBanned:             m.IsBanned,
		JoinedAt:             m.JoinedAt,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}

	return nil
}

func (r *MembershipRepository) Get(ctx context.Context, leagueID, userID string) (membership.Membership, bool, error) {
	var row membershipTableModel
	err := r.db.GetContext(ctx, &row,
		`SELECT * FROM league_members WHERE league_public_id = $1 AND user_id = $2`, leagueID, userID)
	if err != nil {
		if isNotFound(err) {
			return membership.Membership{}, false, nil
		}
		return membership.Membership{}, false, fmt.Errorf("get membership: %w", err)
	}

	return membershipFromRow(row), true, nil
}

func (r *MembershipRepository) ListByLeague(ctx context.Context, leagueID string) ([]membership.Membership, error) {
	var rows []membershipTableModel
	err := r.db.SelectContext(ctx, &rows,
		`SELECT * FROM league_members WHERE league_public_id = $1 ORDER BY user_id`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list memberships by league: %w", err)
	}

	out := make([]membership.Membership, 0, len(rows))
	for _, row := range rows {
		out = append(out, membershipFromRow(row))
	}

	return out, nil
}

// IncrementTrollCount bumps the counter and derives the ban flag in one
// statement, so concurrent flaggers cannot lose an increment.
func (r *MembershipRepository) IncrementTrollCount(ctx context.Context, leagueID, userID string) (membership.Membership, error) {
	const query = `
UPDATE league_members SET
    troll_submission_count = troll_submission_count + 1,
    is_banned = is_banned OR troll_submission_count + 1 >= $1
WHERE league_public_id = $2 AND user_id = $3
RETURNING *`

	var row membershipTableModel
	err := r.db.GetContext(ctx, &row, query, membership.TrollBanThreshold, leagueID, userID)
	if err != nil {
		if isNotFound(err) {
			return membership.Membership{}, fmt.Errorf("membership league=%s user=%s not found", leagueID, userID)
		}
		return membership.Membership{}, fmt.Errorf("increment troll count: %w", err)
	}

	return membershipFromRow(row), nil
}

func membershipFromRow(row membershipTableModel) membership.Membership {
	return membership.Membership{
		LeagueID:             row.LeaguePublicID,
		UserID:               row.UserID,
		IsOwner:              row.IsOwner,
		IsManager:            row.IsManager,
		IsSpectator:          row.IsSpectator,
		TrollSubmissionCount: row.TrollSubmissionCount,
		IsBanned:             row.IsBanned,
		JoinedAt:             row.JoinedAt,
	}
}
