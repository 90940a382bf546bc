package standing

import "context"

// Repository describes league-standing persistence needs from use cases.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Standing, error)
	// ApplyRound adds the deltas of one finished round to the league totals.
	// The write is guarded by an applied-marker per (league, round):
	// applied=false means the round was already accounted for and nothing
	// changed, which makes retries after partial failure safe.
	ApplyRound(ctx context.Context, leagueID, roundID string, deltas []Delta) (bool, error)
}
