package membership

import "context"

// Repository describes membership persistence needs from use cases.
type Repository interface {
	Create(ctx context.Context, m Membership) error
	Get(ctx context.Context, leagueID, userID string) (Membership, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Membership, error)
	// IncrementTrollCount bumps the member's troll-submission counter and
	// derives the ban flag once TrollBanThreshold is crossed.
	IncrementTrollCount(ctx context.Context, leagueID, userID string) (Membership, error)
}
