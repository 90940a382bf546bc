package notification

import "context"

// EventType names a round lifecycle event consumed by the notification
// collaborator.
type EventType string

const (
	EventRoundSubmission EventType = "round_submission"
	EventRoundVoting     EventType = "round_voting"
	EventRoundFinished   EventType = "round_finished"
	EventRoundResubmit   EventType = "round_resubmit"
)

// Event is the fire-and-forget payload handed to the dispatcher. Delivery
// failure never rolls back the state transition that produced it.
type Event struct {
	Type     EventType `json:"type"`
	LeagueID string    `json:"league_id"`
	RoundID  string    `json:"round_id"`
	UserID   string    `json:"user_id,omitempty"`
	Message  string    `json:"message"`
	Link     string    `json:"link,omitempty"`
}

// Dispatcher delivers lifecycle events to the notification collaborator.
// Implementations swallow and log their own failures.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event)
}

// NopDispatcher drops every event. Used when no webhook is configured.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, Event) {}
